package memstore

import (
	"context"
	"strings"

	membershipstore "github.com/dalemusser/promptstash/internal/app/store/memberships"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Teams struct{ db *DB }

func (db *DB) Teams() *Teams { return &Teams{db} }

func (s *Teams) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Team, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("teams.ListForUser", userID); err != nil {
		return nil, err
	}
	out := []models.Team{}
	for _, m := range s.db.members {
		if m.UserID == userID {
			if t, ok := s.db.teams[m.TeamID]; ok {
				out = append(out, t)
			}
		}
	}
	sortByKey(out, func(t models.Team) string { return t.NameCI }, func(t models.Team) primitive.ObjectID { return t.ID })
	return out, nil
}

func (s *Teams) GetByID(_ context.Context, id primitive.ObjectID) (models.Team, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("teams.GetByID", id); err != nil {
		return models.Team{}, err
	}
	t, ok := s.db.teams[id]
	if !ok {
		return models.Team{}, apperr.NotFound("team")
	}
	return t, nil
}

func (s *Teams) Create(_ context.Context, name string, ownerID primitive.ObjectID) (models.Team, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("teams.Create", primitive.NilObjectID); err != nil {
		return models.Team{}, err
	}
	name = strings.TrimSpace(name)
	t := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		CreatedAt: s.db.now(),
	}
	s.db.teams[t.ID] = t
	s.db.members = append(s.db.members, models.Membership{
		TeamID: t.ID, UserID: ownerID, Role: models.RoleOwner, CreatedAt: t.CreatedAt,
	})
	return t, nil
}

func (s *Teams) Rename(_ context.Context, id primitive.ObjectID, name string) (models.Team, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("teams.Rename", id); err != nil {
		return models.Team{}, err
	}
	t, ok := s.db.teams[id]
	if !ok {
		return models.Team{}, apperr.NotFound("team")
	}
	t.Name = strings.TrimSpace(name)
	t.NameCI = text.Fold(t.Name)
	s.db.teams[id] = t
	return t, nil
}

// Delete cascades like teamstore.Store.Delete.
func (s *Teams) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("teams.Delete", id); err != nil {
		return err
	}
	if _, ok := s.db.teams[id]; !ok {
		return apperr.NotFound("team")
	}
	for pid, p := range s.db.prompts {
		if p.TeamID == id {
			s.db.deletePrompt(pid)
		}
	}
	for tid, t := range s.db.tags {
		if t.TeamID == id {
			s.db.deleteTag(tid)
		}
	}
	for fid, f := range s.db.folders {
		if f.TeamID == id {
			delete(s.db.folders, fid)
		}
	}
	kept := s.db.members[:0]
	for _, m := range s.db.members {
		if m.TeamID != id {
			kept = append(kept, m)
		}
	}
	s.db.members = kept
	delete(s.db.teams, id)
	return nil
}

type Memberships struct{ db *DB }

func (db *DB) Memberships() *Memberships { return &Memberships{db} }

func (s *Memberships) List(_ context.Context, teamID primitive.ObjectID) ([]models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("memberships.List", teamID); err != nil {
		return nil, err
	}
	out := []models.Membership{}
	for _, m := range s.db.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Memberships) TeamIDsForUser(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []primitive.ObjectID
	for _, m := range s.db.members {
		if m.UserID == userID {
			out = append(out, m.TeamID)
		}
	}
	return out, nil
}

func (s *Memberships) Get(_ context.Context, teamID, userID primitive.ObjectID) (models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("memberships.Get", userID); err != nil {
		return models.Membership{}, err
	}
	if i := s.index(teamID, userID); i >= 0 {
		return s.db.members[i], nil
	}
	return models.Membership{}, apperr.NotFound("membership")
}

func (s *Memberships) Add(_ context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("memberships.Add", userID); err != nil {
		return models.Membership{}, err
	}
	if !models.ValidRole(role) {
		return models.Membership{}, apperr.Validation("role must be owner, editor or viewer")
	}
	if s.index(teamID, userID) >= 0 {
		return models.Membership{}, membershipstore.ErrAlreadyMember
	}
	m := models.Membership{TeamID: teamID, UserID: userID, Role: role, CreatedAt: s.db.now()}
	s.db.members = append(s.db.members, m)
	return m, nil
}

func (s *Memberships) UpdateRole(_ context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("memberships.UpdateRole", userID); err != nil {
		return models.Membership{}, err
	}
	if !models.ValidRole(role) {
		return models.Membership{}, apperr.Validation("role must be owner, editor or viewer")
	}
	i := s.index(teamID, userID)
	if i < 0 {
		return models.Membership{}, apperr.NotFound("membership")
	}
	s.db.members[i].Role = role
	return s.db.members[i], nil
}

func (s *Memberships) Remove(_ context.Context, teamID, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("memberships.Remove", userID); err != nil {
		return err
	}
	i := s.index(teamID, userID)
	if i < 0 {
		return apperr.NotFound("membership")
	}
	s.db.members = append(s.db.members[:i], s.db.members[i+1:]...)
	return nil
}

func (s *Memberships) index(teamID, userID primitive.ObjectID) int {
	for i, m := range s.db.members {
		if m.TeamID == teamID && m.UserID == userID {
			return i
		}
	}
	return -1
}
