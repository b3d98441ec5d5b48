// internal/app/store/shares/sharestore.go
package sharestore

import (
	"context"
	"time"

	"github.com/dalemusser/promptstash/internal/app/store/mongoerr"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection backing this store.
const Collection = "prompt_shares"

// ErrAlreadyShared is returned when the user already has a share on the prompt.
var ErrAlreadyShared = apperr.Conflict("prompt is already shared with this user", nil)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Indexes returns the index models for the shares collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "prompt_id", Value: 1}, {Key: "target_user", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_shares_prompt_target"),
		},
		{
			Keys:    bson.D{{Key: "prompt_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_shares_prompt_created"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "share index", nil)
}

// List returns a prompt's shares in creation order.
func (s *Store) List(ctx context.Context, promptID primitive.ObjectID) ([]models.Share, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"prompt_id": promptID}, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "share", nil)
	}
	defer cur.Close(ctx)

	out := []models.Share{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "share", nil)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Share, error) {
	var sh models.Share
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sh); err != nil {
		return models.Share{}, mongoerr.Translate(err, "share", nil)
	}
	return sh, nil
}

// GetForUser returns userID's share on promptID.
func (s *Store) GetForUser(ctx context.Context, promptID, userID primitive.ObjectID) (models.Share, error) {
	var sh models.Share
	if err := s.c.FindOne(ctx, bson.M{"prompt_id": promptID, "target_user": userID}).Decode(&sh); err != nil {
		return models.Share{}, mongoerr.Translate(err, "share", nil)
	}
	return sh, nil
}

// Create grants target a permission on a prompt.
func (s *Store) Create(ctx context.Context, promptID, target primitive.ObjectID, permission string) (models.Share, error) {
	sh := models.Share{
		ID:         primitive.NewObjectID(),
		PromptID:   promptID,
		TargetUser: target,
		Permission: permission,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, sh); err != nil {
		return models.Share{}, mongoerr.Translate(err, "share", ErrAlreadyShared)
	}
	return sh, nil
}

// UpdatePermission changes a share's permission and returns it.
func (s *Store) UpdatePermission(ctx context.Context, id primitive.ObjectID, permission string) (models.Share, error) {
	var sh models.Share
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"permission": permission}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&sh)
	if err != nil {
		return models.Share{}, mongoerr.Translate(err, "share", nil)
	}
	return sh, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoerr.Translate(err, "share", nil)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("share")
	}
	return nil
}
