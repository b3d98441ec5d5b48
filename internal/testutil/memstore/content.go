package memstore

import (
	"context"
	"regexp"
	"sort"
	"strings"

	folderstore "github.com/dalemusser/promptstash/internal/app/store/folders"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Folders struct{ db *DB }

func (db *DB) Folders() *Folders { return &Folders{db} }

func (s *Folders) List(_ context.Context, teamID primitive.ObjectID) ([]models.Folder, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("folders.List", teamID); err != nil {
		return nil, err
	}
	out := []models.Folder{}
	for _, f := range s.db.folders {
		if f.TeamID == teamID {
			out = append(out, f)
		}
	}
	sortByKey(out, func(f models.Folder) string { return f.NameCI }, func(f models.Folder) primitive.ObjectID { return f.ID })
	return out, nil
}

func (s *Folders) GetByID(_ context.Context, id primitive.ObjectID) (models.Folder, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("folders.GetByID", id); err != nil {
		return models.Folder{}, err
	}
	f, ok := s.db.folders[id]
	if !ok {
		return models.Folder{}, apperr.NotFound("folder")
	}
	return f, nil
}

func (s *Folders) Create(_ context.Context, f models.Folder) (models.Folder, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("folders.Create", primitive.NilObjectID); err != nil {
		return models.Folder{}, err
	}
	f.ID = primitive.NewObjectID()
	f.Name = strings.TrimSpace(f.Name)
	f.NameCI = text.Fold(f.Name)
	f.CreatedAt = s.db.now()
	s.db.folders[f.ID] = f
	return f, nil
}

func (s *Folders) Rename(_ context.Context, id primitive.ObjectID, name string) (models.Folder, error) {
	return s.mutate("folders.Rename", id, func(f *models.Folder) {
		f.Name = strings.TrimSpace(name)
		f.NameCI = text.Fold(f.Name)
	})
}

func (s *Folders) SetParent(_ context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) (models.Folder, error) {
	return s.mutate("folders.SetParent", id, func(f *models.Folder) {
		if parentID == nil {
			f.ParentID = nil
			return
		}
		p := *parentID
		f.ParentID = &p
	})
}

func (s *Folders) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("folders.Delete", id); err != nil {
		return err
	}
	for _, f := range s.db.folders {
		if f.ParentID != nil && *f.ParentID == id {
			return folderstore.ErrHasChildren
		}
	}
	if _, ok := s.db.folders[id]; !ok {
		return apperr.NotFound("folder")
	}
	delete(s.db.folders, id)
	for pid, p := range s.db.prompts {
		if p.FolderID != nil && *p.FolderID == id {
			p.FolderID = nil
			s.db.prompts[pid] = p
		}
	}
	return nil
}

func (s *Folders) mutate(op string, id primitive.ObjectID, fn func(*models.Folder)) (models.Folder, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter(op, id); err != nil {
		return models.Folder{}, err
	}
	f, ok := s.db.folders[id]
	if !ok {
		return models.Folder{}, apperr.NotFound("folder")
	}
	fn(&f)
	s.db.folders[id] = f
	return f, nil
}

type Prompts struct{ db *DB }

func (db *DB) Prompts() *Prompts { return &Prompts{db} }

func (s *Prompts) List(_ context.Context, teamID primitive.ObjectID, f promptstore.ListFilter) ([]models.Prompt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("prompts.List", teamID); err != nil {
		return nil, err
	}
	var re *regexp.Regexp
	if q := strings.TrimSpace(f.Search); q != "" {
		re = regexp.MustCompile(regexp.QuoteMeta(text.Fold(q)))
	}
	out := []models.Prompt{}
	for _, p := range s.db.prompts {
		if p.TeamID != teamID {
			continue
		}
		if f.FolderID != nil && (p.FolderID == nil || *p.FolderID != *f.FolderID) {
			continue
		}
		if re != nil && !re.MatchString(p.TitleCI) {
			continue
		}
		if f.TagID != nil && !s.db.tagged(p.ID, *f.TagID) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (s *Prompts) GetByID(_ context.Context, id primitive.ObjectID) (models.Prompt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("prompts.GetByID", id); err != nil {
		return models.Prompt{}, err
	}
	p, ok := s.db.prompts[id]
	if !ok {
		return models.Prompt{}, apperr.NotFound("prompt")
	}
	return p, nil
}

func (s *Prompts) GetBySlug(_ context.Context, slug string) (models.Prompt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.prompts {
		if p.Visibility == models.VisibilityPublic && p.PublicSlug != nil && *p.PublicSlug == slug {
			return p, nil
		}
	}
	return models.Prompt{}, apperr.NotFound("prompt")
}

func (s *Prompts) Create(_ context.Context, p models.Prompt) (models.Prompt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("prompts.Create", primitive.NilObjectID); err != nil {
		return models.Prompt{}, err
	}
	if p.PublicSlug != nil && s.slugTaken(*p.PublicSlug, primitive.NilObjectID) {
		return models.Prompt{}, promptstore.ErrSlugTaken
	}
	now := s.db.now()
	p.ID = primitive.NewObjectID()
	p.TitleCI = text.Fold(p.Title)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Tags = nil
	s.db.prompts[p.ID] = p
	return p, nil
}

func (s *Prompts) Update(_ context.Context, id primitive.ObjectID, patch promptstore.Patch) (models.Prompt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("prompts.Update", id); err != nil {
		return models.Prompt{}, err
	}
	p, ok := s.db.prompts[id]
	if !ok {
		return models.Prompt{}, apperr.NotFound("prompt")
	}
	if patch.PublicSlug != nil && !patch.ClearSlug && s.slugTaken(*patch.PublicSlug, id) {
		return models.Prompt{}, promptstore.ErrSlugTaken
	}

	if patch.Title != nil {
		p.Title = *patch.Title
		p.TitleCI = text.Fold(p.Title)
	}
	if patch.BodyMD != nil {
		p.BodyMD = *patch.BodyMD
	}
	if patch.Visibility != nil {
		p.Visibility = *patch.Visibility
	}
	switch {
	case patch.ClearFolder:
		p.FolderID = nil
	case patch.FolderID != nil:
		fid := *patch.FolderID
		p.FolderID = &fid
	}
	switch {
	case patch.ClearSlug:
		p.PublicSlug = nil
	case patch.PublicSlug != nil:
		slug := *patch.PublicSlug
		p.PublicSlug = &slug
	}
	p.UpdatedAt = s.db.now()
	s.db.prompts[id] = p
	return p, nil
}

func (s *Prompts) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("prompts.Delete", id); err != nil {
		return err
	}
	if _, ok := s.db.prompts[id]; !ok {
		return apperr.NotFound("prompt")
	}
	s.db.deletePrompt(id)
	return nil
}

func (s *Prompts) slugTaken(slug string, except primitive.ObjectID) bool {
	for _, p := range s.db.prompts {
		if p.ID != except && p.PublicSlug != nil && *p.PublicSlug == slug {
			return true
		}
	}
	return false
}

// deletePrompt removes a prompt and its dependents. Callers hold mu.
func (db *DB) deletePrompt(id primitive.ObjectID) {
	delete(db.prompts, id)
	kept := db.joins[:0]
	for _, j := range db.joins {
		if j.PromptID != id {
			kept = append(kept, j)
		}
	}
	db.joins = kept
	for vid, v := range db.versions {
		if v.PromptID == id {
			delete(db.versions, vid)
		}
	}
	for sid, sh := range db.shares {
		if sh.PromptID == id {
			delete(db.shares, sid)
		}
	}
}

func (db *DB) tagged(promptID, tagID primitive.ObjectID) bool {
	for _, j := range db.joins {
		if j.PromptID == promptID && j.TagID == tagID {
			return true
		}
	}
	return false
}
