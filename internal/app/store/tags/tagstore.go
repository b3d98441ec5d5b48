// internal/app/store/tags/tagstore.go
package tagstore

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

const (
	// Collection holds tags.
	Collection = "tags"
	// JoinCollection holds prompt-tag associations.
	JoinCollection = "prompt_tags"
)

var (
	// ErrDuplicateTag is returned when the team already has a tag with this name.
	ErrDuplicateTag = apperr.Conflict("a tag with this name already exists in the team", nil)
	// ErrAlreadyAttached is returned when the tag is already on the prompt.
	ErrAlreadyAttached = apperr.Conflict("tag is already attached to this prompt", nil)
)

type Store struct {
	c    *mongo.Collection
	join *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection), join: db.Collection(JoinCollection)}
}

// Indexes returns the index models for the tags collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_tags_team_name"),
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_tags_team_nameci__id"),
		},
	}
}

// JoinIndexes returns the index models for the prompt_tags collection.
func JoinIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "prompt_id", Value: 1}, {Key: "tag_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_prompttags_prompt_tag"),
		},
		{
			Keys:    bson.D{{Key: "tag_id", Value: 1}},
			Options: options.Index().SetName("idx_prompttags_tag"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.c.Indexes().CreateMany(ctx, Indexes()); err != nil {
		return mongoerr.Translate(err, "tag index", nil)
	}
	_, err := s.join.Indexes().CreateMany(ctx, JoinIndexes())
	return mongoerr.Translate(err, "prompt tag index", nil)
}

// List returns a team's tags by name.
func (s *Store) List(ctx context.Context, teamID primitive.ObjectID) ([]models.Tag, error) {
	return s.find(ctx, bson.M{"team_id": teamID})
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Tag, error) {
	var t models.Tag
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Tag{}, mongoerr.Translate(err, "tag", nil)
	}
	return t, nil
}

// Create inserts a tag. Names are unique within a team.
func (s *Store) Create(ctx context.Context, teamID primitive.ObjectID, name string, createdBy primitive.ObjectID) (models.Tag, error) {
	name = strings.TrimSpace(name)
	t := models.Tag{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Tag{}, mongoerr.Translate(err, "tag", ErrDuplicateTag)
	}
	return t, nil
}

// Delete removes a tag and its prompt associations.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoerr.Translate(err, "tag", nil)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("tag")
	}
	_, err = s.join.DeleteMany(ctx, bson.M{"tag_id": id})
	return mongoerr.Translate(err, "tag", nil)
}

// Attach associates a tag with a prompt. A duplicate association is a Conflict.
func (s *Store) Attach(ctx context.Context, promptID, tagID primitive.ObjectID) error {
	_, err := s.join.InsertOne(ctx, models.PromptTag{PromptID: promptID, TagID: tagID})
	return mongoerr.Translate(err, "prompt tag", ErrAlreadyAttached)
}

// Detach removes a tag from a prompt.
func (s *Store) Detach(ctx context.Context, promptID, tagID primitive.ObjectID) error {
	res, err := s.join.DeleteOne(ctx, bson.M{"prompt_id": promptID, "tag_id": tagID})
	if err != nil {
		return mongoerr.Translate(err, "prompt tag", nil)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("prompt tag")
	}
	return nil
}

// ListForPrompt resolves a prompt's tags through the join collection.
// Join rows whose tag no longer exists are dropped.
func (s *Store) ListForPrompt(ctx context.Context, promptID primitive.ObjectID) ([]models.Tag, error) {
	cur, err := s.join.Find(ctx, bson.M{"prompt_id": promptID})
	if err != nil {
		return nil, mongoerr.Translate(err, "prompt tag", nil)
	}
	var rows []models.PromptTag
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mongoerr.Translate(err, "prompt tag", nil)
	}
	if len(rows) == 0 {
		return []models.Tag{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TagID)
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Tag, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "tag", nil)
	}
	defer cur.Close(ctx)

	out := []models.Tag{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "tag", nil)
	}
	return out, nil
}
