// internal/app/store/prompts/promptstore.go
package promptstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/promptstash/internal/app/store/mongoerr"
	sharestore "github.com/dalemusser/promptstash/internal/app/store/shares"
	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	versionstore "github.com/dalemusser/promptstash/internal/app/store/versions"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection backing this store.
const Collection = "prompts"

// ErrSlugTaken is returned when a generated public slug collides.
var ErrSlugTaken = apperr.Conflict("public slug already in use", nil)

// dependents hold rows keyed by prompt_id that go away with the prompt.
var dependents = []string{tagstore.JoinCollection, versionstore.Collection, sharestore.Collection}

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	FolderID *primitive.ObjectID
	TagID    *primitive.ObjectID
	Search   string
}

// Patch is a partial update. Nil pointers leave a field alone; the Clear
// flags unset optional fields.
type Patch struct {
	Title       *string
	BodyMD      *string
	Visibility  *string
	FolderID    *primitive.ObjectID
	ClearFolder bool
	PublicSlug  *string
	ClearSlug   bool
}

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(Collection)}
}

// Indexes returns the index models for the prompts collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// dashboard: newest first within a team
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_prompts_team_updated"),
		},
		// folder filter
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "folder_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_prompts_team_folder_updated"),
		},
		// public lookup; absent on non-public prompts
		{
			Keys:    bson.D{{Key: "public_slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_prompts_public_slug"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "prompt index", nil)
}

// List returns a team's prompts, most recently updated first.
// Search is a case-insensitive substring match on the title; TagID keeps
// prompts linked to that tag.
func (s *Store) List(ctx context.Context, teamID primitive.ObjectID, f ListFilter) ([]models.Prompt, error) {
	filter := bson.M{"team_id": teamID}
	if f.FolderID != nil {
		filter["folder_id"] = *f.FolderID
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["title_ci"] = bson.M{"$regex": regexp.QuoteMeta(text.Fold(q))}
	}
	if f.TagID != nil {
		ids, err := s.db.Collection(tagstore.JoinCollection).Distinct(ctx, "prompt_id", bson.M{"tag_id": *f.TagID})
		if err != nil {
			return nil, mongoerr.Translate(err, "prompt", nil)
		}
		if len(ids) == 0 {
			return []models.Prompt{}, nil
		}
		filter["_id"] = bson.M{"$in": ids}
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "prompt", nil)
	}
	defer cur.Close(ctx)

	out := []models.Prompt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "prompt", nil)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Prompt, error) {
	var p models.Prompt
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Prompt{}, mongoerr.Translate(err, "prompt", nil)
	}
	return p, nil
}

// GetBySlug returns the public prompt whose slug matches exactly. A slug
// that is unknown and one whose prompt is no longer public both yield the
// same NotFound.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Prompt, error) {
	var p models.Prompt
	filter := bson.M{"public_slug": slug, "visibility": models.VisibilityPublic}
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		return models.Prompt{}, mongoerr.Translate(err, "prompt", nil)
	}
	return p, nil
}

// Create inserts p, assigning its id, case-folded title and timestamps.
func (s *Store) Create(ctx context.Context, p models.Prompt) (models.Prompt, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.TitleCI = text.Fold(p.Title)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Tags = nil
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Prompt{}, mongoerr.Translate(err, "prompt", ErrSlugTaken)
	}
	return p, nil
}

// Update applies patch in a single write and returns the updated prompt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (models.Prompt, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if patch.Title != nil {
		set["title"] = *patch.Title
		set["title_ci"] = text.Fold(*patch.Title)
	}
	if patch.BodyMD != nil {
		set["body_md"] = *patch.BodyMD
	}
	if patch.Visibility != nil {
		set["visibility"] = *patch.Visibility
	}
	switch {
	case patch.ClearFolder:
		unset["folder_id"] = ""
	case patch.FolderID != nil:
		set["folder_id"] = *patch.FolderID
	}
	switch {
	case patch.ClearSlug:
		unset["public_slug"] = ""
	case patch.PublicSlug != nil:
		set["public_slug"] = *patch.PublicSlug
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var p models.Prompt
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return models.Prompt{}, mongoerr.Translate(err, "prompt", ErrSlugTaken)
	}
	return p, nil
}

// Delete removes a prompt with its tag associations, versions and shares.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoerr.Translate(err, "prompt", nil)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("prompt")
	}
	return s.deleteDependents(ctx, bson.M{"prompt_id": id})
}

// DeleteByTeam removes every prompt in a team with its dependents.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) error {
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return apperr.Store(err)
	}
	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			cur.Close(ctx)
			return apperr.Store(err)
		}
		ids = append(ids, row.ID)
	}
	cerr := cur.Err()
	cur.Close(ctx)
	if cerr != nil {
		return apperr.Store(cerr)
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID}); err != nil {
		return apperr.Store(err)
	}
	return s.deleteDependents(ctx, bson.M{"prompt_id": bson.M{"$in": ids}})
}

// UnsetFolder moves every prompt in folderID to its team root.
func (s *Store) UnsetFolder(ctx context.Context, folderID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"folder_id": folderID}, bson.M{"$unset": bson.M{"folder_id": ""}})
	return mongoerr.Translate(err, "prompt", nil)
}

func (s *Store) deleteDependents(ctx context.Context, filter bson.M) error {
	for _, coll := range dependents {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, filter); err != nil {
			return apperr.Store(err)
		}
	}
	return nil
}
