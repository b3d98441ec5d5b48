// internal/app/store/folders/folderstore.go
package folderstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/promptstash/internal/app/store/mongoerr"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection backing this store.
const Collection = "folders"

// ErrHasChildren is returned when deleting a folder that still has subfolders.
var ErrHasChildren = apperr.Conflict("folder has subfolders; move or delete them first", nil)

type Store struct {
	c       *mongo.Collection
	prompts *promptstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection), prompts: promptstore.New(db)}
}

// Indexes returns the index models for the folders collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_folders_team_nameci__id"),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("idx_folders_parent"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "folder index", nil)
}

// List returns every folder in a team by name; callers build the tree.
func (s *Store) List(ctx context.Context, teamID primitive.ObjectID) ([]models.Folder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "folder", nil)
	}
	defer cur.Close(ctx)

	out := []models.Folder{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "folder", nil)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return models.Folder{}, mongoerr.Translate(err, "folder", nil)
	}
	return f, nil
}

// Create inserts f. TeamID, ParentID, Name and CreatedBy come from the caller.
func (s *Store) Create(ctx context.Context, f models.Folder) (models.Folder, error) {
	f.ID = primitive.NewObjectID()
	f.Name = strings.TrimSpace(f.Name)
	f.NameCI = text.Fold(f.Name)
	f.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.Folder{}, mongoerr.Translate(err, "folder", nil)
	}
	return f, nil
}

func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	return s.update(ctx, id, bson.M{"$set": bson.M{"name": name, "name_ci": text.Fold(name)}})
}

// SetParent re-parents a folder; nil makes it a root folder.
// No cycle or team check happens here.
func (s *Store) SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) (models.Folder, error) {
	if parentID == nil {
		return s.update(ctx, id, bson.M{"$unset": bson.M{"parent_id": ""}})
	}
	return s.update(ctx, id, bson.M{"$set": bson.M{"parent_id": *parentID}})
}

// Delete removes a folder. It fails with ErrHasChildren while subfolders
// exist; prompts filed in it move to the team root.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"parent_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return mongoerr.Translate(err, "folder", nil)
	}
	if n > 0 {
		return ErrHasChildren
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoerr.Translate(err, "folder", nil)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("folder")
	}
	return s.prompts.UnsetFolder(ctx, id)
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, update bson.M) (models.Folder, error) {
	var f models.Folder
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&f)
	if err != nil {
		return models.Folder{}, mongoerr.Translate(err, "folder", nil)
	}
	return f, nil
}
