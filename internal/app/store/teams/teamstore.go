// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"strings"
	"time"

	folderstore "github.com/dalemusser/promptstash/internal/app/store/folders"
	membershipstore "github.com/dalemusser/promptstash/internal/app/store/memberships"
	"github.com/dalemusser/promptstash/internal/app/store/mongoerr"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection backing this store.
const Collection = "teams"

// Store manages teams. Creating a team also writes the owner's membership,
// and deleting one removes everything scoped to it.
type Store struct {
	db          *mongo.Database
	c           *mongo.Collection
	memberships *membershipstore.Store
	prompts     *promptstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:          db,
		c:           db.Collection(Collection),
		memberships: membershipstore.New(db),
		prompts:     promptstore.New(db),
	}
}

// Indexes returns the index models for the teams collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_owner"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_nameci__id"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "team index", nil)
}

// ListForUser returns the teams userID belongs to, by name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Team, error) {
	ids, err := s.memberships.TeamIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []models.Team{}
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "team", nil)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "team", nil)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Team{}, mongoerr.Translate(err, "team", nil)
	}
	return t, nil
}

// Create inserts a team owned by ownerID together with the owner membership.
// If the membership cannot be written the team is removed again.
func (s *Store) Create(ctx context.Context, name string, ownerID primitive.ObjectID) (models.Team, error) {
	name = strings.TrimSpace(name)
	t := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Team{}, mongoerr.Translate(err, "team", nil)
	}
	if _, err := s.memberships.Add(ctx, t.ID, ownerID, models.RoleOwner); err != nil {
		_, _ = s.c.DeleteOne(ctx, bson.M{"_id": t.ID})
		return models.Team{}, err
	}
	return t, nil
}

// Rename sets the team's name and returns the updated team.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) (models.Team, error) {
	name = strings.TrimSpace(name)
	var t models.Team
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "name_ci": text.Fold(name)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return models.Team{}, mongoerr.Translate(err, "team", nil)
	}
	return t, nil
}

// Delete removes a team and everything scoped to it: prompts (with their
// tags, versions and shares), tags, folders and memberships.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.prompts.DeleteByTeam(ctx, id); err != nil {
		return err
	}

	byTeam := bson.M{"team_id": id}
	tagIDs, err := s.idsWhere(ctx, tagstore.Collection, byTeam)
	if err != nil {
		return err
	}
	if len(tagIDs) > 0 {
		if _, err := s.db.Collection(tagstore.JoinCollection).DeleteMany(ctx, bson.M{"tag_id": bson.M{"$in": tagIDs}}); err != nil {
			return apperr.Store(err)
		}
	}
	for _, coll := range []string{tagstore.Collection, folderstore.Collection, membershipstore.Collection} {
		if _, err := s.db.Collection(coll).DeleteMany(ctx, byTeam); err != nil {
			return apperr.Store(err)
		}
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Store(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("team")
	}
	return nil
}

func (s *Store) idsWhere(ctx context.Context, coll string, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.db.Collection(coll).Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, apperr.Store(err)
		}
		ids = append(ids, row.ID)
	}
	return ids, apperr.Store(cur.Err())
}
