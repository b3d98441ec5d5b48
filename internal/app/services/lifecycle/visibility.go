package lifecycle

import (
	"context"
	"errors"
	"strings"

	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// slugAttempts bounds retries when a generated slug collides.
const slugAttempts = 3

// Publish makes a prompt public under a newly generated slug. Publishing an
// already public prompt still reissues the slug, so the previous link dies.
func (m *Manager) Publish(ctx context.Context, id primitive.ObjectID) (p models.Prompt, err error) {
	defer func() { observe("publish", err) }()

	cur, _, err := m.load(ctx, id, canManage)
	if err != nil {
		return models.Prompt{}, err
	}
	var patch promptstore.Patch
	applyTransition(&patch, cur, models.VisibilityPublic, true)
	p, err = m.write(ctx, cur, patch, true)
	if err != nil {
		return models.Prompt{}, err
	}
	m.audit.PromptPublished(ctx, p.TeamID, p.ID, *p.PublicSlug)
	return p, nil
}

// Unpublish makes a prompt private and clears its slug. Any link that was
// handed out for that slug stops resolving.
func (m *Manager) Unpublish(ctx context.Context, id primitive.ObjectID) (p models.Prompt, err error) {
	defer func() { observe("unpublish", err) }()

	cur, _, err := m.load(ctx, id, canManage)
	if err != nil {
		return models.Prompt{}, err
	}
	var patch promptstore.Patch
	applyTransition(&patch, cur, models.VisibilityPrivate, false)
	p, err = m.write(ctx, cur, patch, false)
	if err != nil {
		return models.Prompt{}, err
	}
	revoked := ""
	if cur.PublicSlug != nil {
		revoked = *cur.PublicSlug
	}
	m.audit.PromptUnpublished(ctx, p.TeamID, p.ID, revoked)
	return p, nil
}

// SetVisibility moves a prompt to v. Entering public issues a slug unless
// the prompt is already public; leaving public clears it.
func (m *Manager) SetVisibility(ctx context.Context, id primitive.ObjectID, v string) (p models.Prompt, err error) {
	defer func() { observe("visibility", err) }()

	if !models.ValidVisibility(v) {
		return models.Prompt{}, apperr.Validation("visibility must be private, team or public")
	}
	cur, _, err := m.load(ctx, id, canManage)
	if err != nil {
		return models.Prompt{}, err
	}
	if v == cur.Visibility && (v != models.VisibilityPublic || cur.PublicSlug != nil) {
		return cur, nil
	}

	var patch promptstore.Patch
	fresh := applyTransition(&patch, cur, v, false)
	p, err = m.write(ctx, cur, patch, fresh)
	if err != nil {
		return models.Prompt{}, err
	}
	m.auditVisibility(ctx, cur, p)
	return p, nil
}

// applyTransition fills patch with the fields that move cur to target and
// reports whether a fresh slug must be issued. always forces a new slug even
// when cur is already public.
func applyTransition(patch *promptstore.Patch, cur models.Prompt, target string, always bool) bool {
	v := target
	patch.Visibility = &v
	if target != models.VisibilityPublic {
		patch.ClearSlug = true
		patch.PublicSlug = nil
		return false
	}
	return always || !cur.IsPublic()
}

// write persists patch in one update, generating the slug first when fresh.
func (m *Manager) write(ctx context.Context, cur models.Prompt, patch promptstore.Patch, fresh bool) (models.Prompt, error) {
	if !fresh {
		return m.st.Prompts.Update(ctx, cur.ID, patch)
	}
	return m.withFreshSlug(cur.PublicSlug, func(s string) (models.Prompt, error) {
		patch.PublicSlug = &s
		patch.ClearSlug = false
		return m.st.Prompts.Update(ctx, cur.ID, patch)
	})
}

// withFreshSlug calls fn with a newly generated slug different from prev,
// retrying when the store reports the slug is already taken.
func (m *Manager) withFreshSlug(prev *string, fn func(string) (models.Prompt, error)) (models.Prompt, error) {
	var lastErr error
	for i := 0; i < slugAttempts; i++ {
		s, err := m.newSlug()
		if err != nil {
			return models.Prompt{}, apperr.Store(err)
		}
		if prev != nil && s == *prev {
			lastErr = promptstore.ErrSlugTaken
			continue
		}
		p, err := fn(s)
		if errors.Is(err, promptstore.ErrSlugTaken) {
			lastErr = err
			continue
		}
		return p, err
	}
	return models.Prompt{}, lastErr
}

func (m *Manager) auditVisibility(ctx context.Context, before, after models.Prompt) {
	switch {
	case after.IsPublic() && (!before.IsPublic() || *before.PublicSlug != *after.PublicSlug):
		m.audit.PromptPublished(ctx, after.TeamID, after.ID, *after.PublicSlug)
	case before.IsPublic() && !after.IsPublic():
		m.audit.PromptUnpublished(ctx, after.TeamID, after.ID, *before.PublicSlug)
	case before.Visibility != after.Visibility:
		m.audit.VisibilityChanged(ctx, after.TeamID, after.ID, before.Visibility, after.Visibility)
	}
}

func cleanNote(note *string) *string {
	if note == nil {
		return nil
	}
	n := strings.TrimSpace(*note)
	if n == "" {
		return nil
	}
	return &n
}
