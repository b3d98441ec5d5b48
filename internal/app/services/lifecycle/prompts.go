package lifecycle

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/policy/teampolicy"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// bulkConcurrency caps the deletes a BulkDelete has in flight.
const bulkConcurrency = 8

// CreateInput describes a new prompt.
type CreateInput struct {
	TeamID     primitive.ObjectID
	FolderID   *primitive.ObjectID
	Title      string
	BodyMD     string
	Visibility string
}

// Patch is a partial edit. Nil fields are left alone; ClearFolder moves the
// prompt to the team root.
type Patch struct {
	Title       *string
	BodyMD      *string
	Visibility  *string
	FolderID    *primitive.ObjectID
	ClearFolder bool
}

// SaveMode distinguishes an explicit save from a debounced autosave.
type SaveMode int

const (
	Manual SaveMode = iota
	Autosave
)

func (s SaveMode) String() string {
	if s == Autosave {
		return "autosave"
	}
	return "save"
}

// SaveInput is a full content save from the editor.
type SaveInput struct {
	Title      string
	BodyMD     string
	ChangeNote *string
	Mode       SaveMode
}

// BulkResult reports which prompts a BulkDelete removed. Deletes that
// failed are listed in Failed and were not retried or rolled back.
type BulkResult struct {
	Deleted []primitive.ObjectID
	Failed  map[primitive.ObjectID]error
}

// Create validates in and inserts a prompt owned by the caller. The title is
// checked before any store call. A requested public visibility is applied
// through the state machine, so the prompt is created with a slug.
func (m *Manager) Create(ctx context.Context, in CreateInput) (p models.Prompt, err error) {
	defer func() { observe("create", err) }()

	who, err := caller(ctx)
	if err != nil {
		return models.Prompt{}, err
	}
	title, err := ValidateTitle(in.Title)
	if err != nil {
		return models.Prompt{}, err
	}
	if in.TeamID.IsZero() {
		return models.Prompt{}, apperr.Validation("team is required")
	}
	vis := in.Visibility
	if vis == "" {
		vis = models.VisibilityPrivate
	}
	if !models.ValidVisibility(vis) {
		return models.Prompt{}, apperr.Validation("visibility must be private, team or public")
	}
	if _, err := m.requireTeam(ctx, in.TeamID, m.access.CanWriteTeam); err != nil {
		return models.Prompt{}, err
	}
	if in.FolderID != nil {
		if err := m.folderInTeam(ctx, in.TeamID, *in.FolderID); err != nil {
			return models.Prompt{}, err
		}
	}

	draft := models.Prompt{
		TeamID:     in.TeamID,
		FolderID:   in.FolderID,
		OwnerID:    who.UserID,
		Title:      title,
		BodyMD:     in.BodyMD,
		Visibility: vis,
	}
	if vis == models.VisibilityPublic {
		p, err = m.withFreshSlug(nil, func(s string) (models.Prompt, error) {
			draft.PublicSlug = &s
			return m.st.Prompts.Create(ctx, draft)
		})
	} else {
		p, err = m.st.Prompts.Create(ctx, draft)
	}
	if err != nil {
		return models.Prompt{}, err
	}

	m.audit.PromptCreated(ctx, p.TeamID, p.ID, p.Visibility)
	p.Tags = []models.Tag{}
	return p, nil
}

// Get returns a prompt with its tags. The tag read is a second fetch; if it
// fails the whole read fails.
func (m *Manager) Get(ctx context.Context, id primitive.ObjectID) (models.Prompt, error) {
	p, _, err := m.load(ctx, id, canView)
	if err != nil {
		return models.Prompt{}, err
	}
	return m.withTags(ctx, p)
}

// GetBySlug is the unauthenticated read path. An unknown slug and the slug
// of a prompt that is no longer public are the same NotFound.
func (m *Manager) GetBySlug(ctx context.Context, s string) (models.Prompt, error) {
	if s == "" {
		return models.Prompt{}, apperr.NotFound("prompt")
	}
	p, err := m.st.Prompts.GetBySlug(ctx, s)
	if err != nil {
		return models.Prompt{}, err
	}
	return m.withTags(ctx, p)
}

func (m *Manager) withTags(ctx context.Context, p models.Prompt) (models.Prompt, error) {
	tags, err := m.st.Tags.ListForPrompt(ctx, p.ID)
	if err != nil {
		return models.Prompt{}, err
	}
	p.Tags = tags
	return p, nil
}

// List returns the team's prompts the caller can see, most recently
// updated first.
func (m *Manager) List(ctx context.Context, teamID primitive.ObjectID, f ListFilter) ([]models.Prompt, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	role, err := m.access.Role(ctx, teamID, who.UserID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, apperr.NotFound("team")
	}

	all, err := m.st.Prompts.List(ctx, teamID, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.Prompt, 0, len(all))
	for _, p := range all {
		ok, err := m.visibleInList(ctx, p, who.UserID, role)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Manager) visibleInList(ctx context.Context, p models.Prompt, userID primitive.ObjectID, role string) (bool, error) {
	if a := teampolicy.Decide(p, userID, role, nil); a.View {
		return true, nil
	}
	_, err := m.st.Shares.GetForUser(ctx, p.ID, userID)
	switch {
	case err == nil:
		return true, nil
	case apperr.KindOf(err) == apperr.ErrNotFound:
		return false, nil
	}
	return false, err
}

// Update applies a partial edit. A title is validated like on create, a
// folder change follows the Move rules and a visibility change goes through
// the state machine and needs manage access.
func (m *Manager) Update(ctx context.Context, id primitive.ObjectID, in Patch) (p models.Prompt, err error) {
	defer func() { observe("update", err) }()

	cur, who, err := m.load(ctx, id, canEdit)
	if err != nil {
		return models.Prompt{}, err
	}

	var patch promptstore.Patch
	if in.Title != nil {
		title, err := ValidateTitle(*in.Title)
		if err != nil {
			return models.Prompt{}, err
		}
		patch.Title = &title
	}
	patch.BodyMD = in.BodyMD
	switch {
	case in.ClearFolder:
		patch.ClearFolder = true
	case in.FolderID != nil:
		if err := m.folderInTeam(ctx, cur.TeamID, *in.FolderID); err != nil {
			return models.Prompt{}, err
		}
		patch.FolderID = in.FolderID
	}

	fresh := false
	if in.Visibility != nil && *in.Visibility != cur.Visibility {
		if !models.ValidVisibility(*in.Visibility) {
			return models.Prompt{}, apperr.Validation("visibility must be private, team or public")
		}
		a, err := m.access.PromptAccess(ctx, cur, who.UserID)
		if err != nil {
			return models.Prompt{}, err
		}
		if !a.Manage {
			return models.Prompt{}, apperr.NotFound("prompt")
		}
		fresh = applyTransition(&patch, cur, *in.Visibility, false)
	}

	p, err = m.write(ctx, cur, patch, fresh)
	if err != nil {
		return models.Prompt{}, err
	}
	m.auditVisibility(ctx, cur, p)
	return p, nil
}

// Save writes the editor's title and body. Manual saves always append a
// version snapshot of the saved content; autosaves do so only when the
// policy asks for it.
func (m *Manager) Save(ctx context.Context, id primitive.ObjectID, in SaveInput) (p models.Prompt, err error) {
	defer func() { observe(in.Mode.String(), err) }()

	title, err := ValidateTitle(in.Title)
	if err != nil {
		return models.Prompt{}, err
	}
	_, who, err := m.load(ctx, id, canEdit)
	if err != nil {
		return models.Prompt{}, err
	}

	body := in.BodyMD
	p, err = m.st.Prompts.Update(ctx, id, promptstore.Patch{Title: &title, BodyMD: &body})
	if err != nil {
		return models.Prompt{}, err
	}

	if in.Mode == Manual || m.policy.AutosaveCreatesVersion {
		if _, err := m.st.Versions.Create(ctx, models.PromptVersion{
			PromptID:   p.ID,
			Title:      p.Title,
			BodyMD:     p.BodyMD,
			CreatedBy:  who.UserID,
			ChangeNote: cleanNote(in.ChangeNote),
		}); err != nil {
			return models.Prompt{}, err
		}
	}
	return p, nil
}

// Move files a prompt into folderID, or at the team root when folderID is
// nil. The folder must exist and belong to the prompt's team.
func (m *Manager) Move(ctx context.Context, promptID primitive.ObjectID, folderID *primitive.ObjectID) (p models.Prompt, err error) {
	defer func() { observe("move", err) }()

	cur, _, err := m.load(ctx, promptID, canEdit)
	if err != nil {
		return models.Prompt{}, err
	}
	if folderID == nil {
		return m.st.Prompts.Update(ctx, promptID, promptstore.Patch{ClearFolder: true})
	}
	if err := m.folderInTeam(ctx, cur.TeamID, *folderID); err != nil {
		return models.Prompt{}, err
	}
	return m.st.Prompts.Update(ctx, promptID, promptstore.Patch{FolderID: folderID})
}

// Delete hard-deletes a prompt. Its tag links, versions and shares go with it.
func (m *Manager) Delete(ctx context.Context, id primitive.ObjectID) (err error) {
	defer func() { observe("delete", err) }()

	p, _, err := m.load(ctx, id, canManage)
	if err != nil {
		return err
	}
	if err := m.st.Prompts.Delete(ctx, id); err != nil {
		return err
	}
	m.audit.PromptDeleted(ctx, p.TeamID, p.ID)
	return nil
}

// BulkDelete issues every delete concurrently and waits for all of them.
// It is not a transaction: a failure leaves the other deletes applied.
func (m *Manager) BulkDelete(ctx context.Context, ids []primitive.ObjectID) (BulkResult, error) {
	if _, err := caller(ctx); err != nil {
		return BulkResult{}, err
	}
	ids = dedupe(ids)
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = m.Delete(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult{Deleted: []primitive.ObjectID{}, Failed: map[primitive.ObjectID]error{}}
	for i, id := range ids {
		if errs[i] != nil {
			res.Failed[id] = errs[i]
			m.log.Warn("bulk delete: prompt not deleted",
				zap.String("prompt_id", id.Hex()), zap.Error(errs[i]))
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	return res, nil
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
