package memstore

import (
	"context"
	"sort"
	"strings"

	sharestore "github.com/dalemusser/promptstash/internal/app/store/shares"
	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tags struct{ db *DB }

func (db *DB) Tags() *Tags { return &Tags{db} }

func (s *Tags) List(_ context.Context, teamID primitive.ObjectID) ([]models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.List", teamID); err != nil {
		return nil, err
	}
	out := []models.Tag{}
	for _, t := range s.db.tags {
		if t.TeamID == teamID {
			out = append(out, t)
		}
	}
	sortTags(out)
	return out, nil
}

func (s *Tags) GetByID(_ context.Context, id primitive.ObjectID) (models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.GetByID", id); err != nil {
		return models.Tag{}, err
	}
	t, ok := s.db.tags[id]
	if !ok {
		return models.Tag{}, apperr.NotFound("tag")
	}
	return t, nil
}

func (s *Tags) Create(_ context.Context, teamID primitive.ObjectID, name string, createdBy primitive.ObjectID) (models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.Create", teamID); err != nil {
		return models.Tag{}, err
	}
	name = strings.TrimSpace(name)
	for _, t := range s.db.tags {
		if t.TeamID == teamID && t.Name == name {
			return models.Tag{}, tagstore.ErrDuplicateTag
		}
	}
	t := models.Tag{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: s.db.now(),
	}
	s.db.tags[t.ID] = t
	return t, nil
}

func (s *Tags) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.Delete", id); err != nil {
		return err
	}
	if _, ok := s.db.tags[id]; !ok {
		return apperr.NotFound("tag")
	}
	s.db.deleteTag(id)
	return nil
}

func (s *Tags) Attach(_ context.Context, promptID, tagID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.Attach", tagID); err != nil {
		return err
	}
	if s.joinIndex(promptID, tagID) >= 0 {
		return tagstore.ErrAlreadyAttached
	}
	s.db.joins = append(s.db.joins, models.PromptTag{PromptID: promptID, TagID: tagID})
	return nil
}

func (s *Tags) Detach(_ context.Context, promptID, tagID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.Detach", tagID); err != nil {
		return err
	}
	i := s.joinIndex(promptID, tagID)
	if i < 0 {
		return apperr.NotFound("prompt tag")
	}
	s.db.joins = append(s.db.joins[:i], s.db.joins[i+1:]...)
	return nil
}

func (s *Tags) ListForPrompt(_ context.Context, promptID primitive.ObjectID) ([]models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("tags.ListForPrompt", promptID); err != nil {
		return nil, err
	}
	out := []models.Tag{}
	for _, j := range s.db.joins {
		if j.PromptID != promptID {
			continue
		}
		if t, ok := s.db.tags[j.TagID]; ok {
			out = append(out, t)
		}
	}
	sortTags(out)
	return out, nil
}

// AttachRaw inserts a join row without checks, for simulating dangling rows.
func (s *Tags) AttachRaw(promptID, tagID primitive.ObjectID) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.joins = append(s.db.joins, models.PromptTag{PromptID: promptID, TagID: tagID})
}

func (s *Tags) joinIndex(promptID, tagID primitive.ObjectID) int {
	for i, j := range s.db.joins {
		if j.PromptID == promptID && j.TagID == tagID {
			return i
		}
	}
	return -1
}

func sortTags(tags []models.Tag) {
	sortByKey(tags, func(t models.Tag) string { return t.NameCI }, func(t models.Tag) primitive.ObjectID { return t.ID })
}

// deleteTag removes a tag and its join rows. Callers hold mu.
func (db *DB) deleteTag(id primitive.ObjectID) {
	delete(db.tags, id)
	kept := db.joins[:0]
	for _, j := range db.joins {
		if j.TagID != id {
			kept = append(kept, j)
		}
	}
	db.joins = kept
}

type Versions struct{ db *DB }

func (db *DB) Versions() *Versions { return &Versions{db} }

func (s *Versions) List(_ context.Context, promptID primitive.ObjectID) ([]models.PromptVersion, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("versions.List", promptID); err != nil {
		return nil, err
	}
	out := []models.PromptVersion{}
	for _, v := range s.db.versions {
		if v.PromptID == promptID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (s *Versions) GetByID(_ context.Context, id primitive.ObjectID) (models.PromptVersion, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("versions.GetByID", id); err != nil {
		return models.PromptVersion{}, err
	}
	v, ok := s.db.versions[id]
	if !ok {
		return models.PromptVersion{}, apperr.NotFound("version")
	}
	return v, nil
}

func (s *Versions) Create(_ context.Context, v models.PromptVersion) (models.PromptVersion, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("versions.Create", v.PromptID); err != nil {
		return models.PromptVersion{}, err
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = s.db.now()
	s.db.versions[v.ID] = v
	return v, nil
}

type Shares struct{ db *DB }

func (db *DB) Shares() *Shares { return &Shares{db} }

func (s *Shares) List(_ context.Context, promptID primitive.ObjectID) ([]models.Share, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("shares.List", promptID); err != nil {
		return nil, err
	}
	out := []models.Share{}
	for _, sh := range s.db.shares {
		if sh.PromptID == promptID {
			out = append(out, sh)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *Shares) GetByID(_ context.Context, id primitive.ObjectID) (models.Share, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sh, ok := s.db.shares[id]
	if !ok {
		return models.Share{}, apperr.NotFound("share")
	}
	return sh, nil
}

func (s *Shares) GetForUser(_ context.Context, promptID, userID primitive.ObjectID) (models.Share, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, sh := range s.db.shares {
		if sh.PromptID == promptID && sh.TargetUser == userID {
			return sh, nil
		}
	}
	return models.Share{}, apperr.NotFound("share")
}

func (s *Shares) Create(_ context.Context, promptID, target primitive.ObjectID, permission string) (models.Share, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("shares.Create", target); err != nil {
		return models.Share{}, err
	}
	for _, sh := range s.db.shares {
		if sh.PromptID == promptID && sh.TargetUser == target {
			return models.Share{}, sharestore.ErrAlreadyShared
		}
	}
	sh := models.Share{
		ID:         primitive.NewObjectID(),
		PromptID:   promptID,
		TargetUser: target,
		Permission: permission,
		CreatedAt:  s.db.now(),
	}
	s.db.shares[sh.ID] = sh
	return sh, nil
}

func (s *Shares) UpdatePermission(_ context.Context, id primitive.ObjectID, permission string) (models.Share, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("shares.UpdatePermission", id); err != nil {
		return models.Share{}, err
	}
	sh, ok := s.db.shares[id]
	if !ok {
		return models.Share{}, apperr.NotFound("share")
	}
	sh.Permission = permission
	s.db.shares[id] = sh
	return sh, nil
}

func (s *Shares) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("shares.Delete", id); err != nil {
		return err
	}
	if _, ok := s.db.shares[id]; !ok {
		return apperr.NotFound("share")
	}
	delete(s.db.shares, id)
	return nil
}
