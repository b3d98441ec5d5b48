// internal/app/store/versions/versionstore.go
package versionstore

import (
	"context"
	"time"

	"github.com/dalemusser/promptstash/internal/app/store/mongoerr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection backing this store.
const Collection = "prompt_versions"

// Store is append-only: versions are never updated, and deleted only when
// their prompt is.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Indexes returns the index models for the versions collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "prompt_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_versions_prompt_created"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "version index", nil)
}

// List returns a prompt's versions, newest first.
func (s *Store) List(ctx context.Context, promptID primitive.ObjectID) ([]models.PromptVersion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"prompt_id": promptID}, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "version", nil)
	}
	defer cur.Close(ctx)

	out := []models.PromptVersion{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "version", nil)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PromptVersion, error) {
	var v models.PromptVersion
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return models.PromptVersion{}, mongoerr.Translate(err, "version", nil)
	}
	return v, nil
}

// Create appends a snapshot, assigning its id and timestamp.
func (s *Store) Create(ctx context.Context, v models.PromptVersion) (models.PromptVersion, error) {
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return models.PromptVersion{}, mongoerr.Translate(err, "version", nil)
	}
	return v, nil
}
