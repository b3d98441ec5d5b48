// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/promptstash/internal/app/store/mongoerr"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection backing this store.
const Collection = "users"

// ErrDuplicateEmail is returned when an email is already registered.
var ErrDuplicateEmail = apperr.Conflict("a user with this email already exists", nil)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Indexes returns the index models for the users collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "user index", nil)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user. passwordHash is empty for Google accounts.
func (s *Store) Create(ctx context.Context, email, name, passwordHash, authMethod string) (models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return models.User{}, apperr.Validation("email is required")
	}
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		EmailCI:      text.Fold(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		AuthMethod:   authMethod,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, mongoerr.Translate(err, "user", ErrDuplicateEmail)
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, mongoerr.Translate(err, "user", nil)
	}
	return u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	filter := bson.M{"email_ci": text.Fold(NormalizeEmail(email))}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return models.User{}, mongoerr.Translate(err, "user", nil)
	}
	return u, nil
}

// UpsertGoogle returns the user registered under email, creating a Google
// account when none exists. An existing account keeps its auth method; its
// name is filled in only if it was empty.
func (s *Store) UpsertGoogle(ctx context.Context, email, name string) (models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return models.User{}, apperr.Validation("email is required")
	}
	now := time.Now().UTC()
	filter := bson.M{"email_ci": text.Fold(email)}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"email":       email,
			"email_ci":    text.Fold(email),
			"name":        strings.TrimSpace(name),
			"auth_method": models.AuthGoogle,
			"created_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		return models.User{}, mongoerr.Translate(err, "user", ErrDuplicateEmail)
	}
	if u.Name == "" && strings.TrimSpace(name) != "" {
		u.Name = strings.TrimSpace(name)
		if _, err := s.c.UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"name": u.Name}}); err != nil {
			return models.User{}, mongoerr.Translate(err, "user", nil)
		}
	}
	return u, nil
}
