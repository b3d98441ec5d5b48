package memstore

import (
	"context"
	"strings"

	userstore "github.com/dalemusser/promptstash/internal/app/store/users"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct{ db *DB }

func (db *DB) Users() *Users { return &Users{db} }

func (s *Users) Create(_ context.Context, email, name, passwordHash, authMethod string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("users.Create", primitive.NilObjectID); err != nil {
		return models.User{}, err
	}
	email = userstore.NormalizeEmail(email)
	if email == "" {
		return models.User{}, apperr.Validation("email is required")
	}
	if _, ok := s.byEmail(email); ok {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		AuthMethod:   authMethod,
		CreatedAt:    s.db.now(),
	}
	s.db.users[u.ID] = u
	return u, nil
}

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.enter("users.GetByID", id); err != nil {
		return models.User{}, err
	}
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user")
	}
	return u, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.byEmail(userstore.NormalizeEmail(email))
	if !ok {
		return models.User{}, apperr.NotFound("user")
	}
	return u, nil
}

func (s *Users) UpsertGoogle(ctx context.Context, email, name string) (models.User, error) {
	s.db.mu.Lock()
	if u, ok := s.byEmail(userstore.NormalizeEmail(email)); ok {
		if u.Name == "" {
			u.Name = strings.TrimSpace(name)
			s.db.users[u.ID] = u
		}
		s.db.mu.Unlock()
		return u, nil
	}
	s.db.mu.Unlock()
	return s.Create(ctx, email, name, "", models.AuthGoogle)
}

func (s *Users) byEmail(email string) (models.User, bool) {
	ci := text.Fold(email)
	for _, u := range s.db.users {
		if u.EmailCI == ci {
			return u, true
		}
	}
	return models.User{}, false
}
