// internal/app/store/memberships/membershipstore.go
package membershipstore

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
const Collection = "team_memberships"

// ErrAlreadyMember is returned when the user already has a role in the team.
var ErrAlreadyMember = apperr.Conflict("user is already a member of this team", nil)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Indexes returns the index models for the memberships collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// a user has at most one role per team
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_memberships_team_user"),
		},
		// "teams I belong to"
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_memberships_user_team"),
		},
		// member lists in join order
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_memberships_team_created"),
		},
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, Indexes())
	return mongoerr.Translate(err, "membership index", nil)
}

// List returns a team's memberships, oldest first.
func (s *Store) List(ctx context.Context, teamID primitive.ObjectID) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, mongoerr.Translate(err, "membership", nil)
	}
	defer cur.Close(ctx)

	out := []models.Membership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoerr.Translate(err, "membership", nil)
	}
	return out, nil
}

// TeamIDsForUser returns the ids of every team userID belongs to.
func (s *Store) TeamIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"team_id": 1}))
	if err != nil {
		return nil, mongoerr.Translate(err, "membership", nil)
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			TeamID primitive.ObjectID `bson:"team_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, mongoerr.Translate(err, "membership", nil)
		}
		ids = append(ids, row.TeamID)
	}
	return ids, mongoerr.Translate(cur.Err(), "membership", nil)
}

// Get returns userID's membership in teamID.
func (s *Store) Get(ctx context.Context, teamID, userID primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	if err := s.c.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Decode(&m); err != nil {
		return models.Membership{}, mongoerr.Translate(err, "membership", nil)
	}
	return m, nil
}

// Add grants userID a role in teamID.
func (s *Store) Add(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error) {
	if !models.ValidRole(role) {
		return models.Membership{}, apperr.Validation("role must be owner, editor or viewer")
	}
	m := models.Membership{
		TeamID:    teamID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Membership{}, mongoerr.Translate(err, "membership", ErrAlreadyMember)
	}
	return m, nil
}

// UpdateRole changes userID's role in teamID and returns the updated row.
func (s *Store) UpdateRole(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error) {
	if !models.ValidRole(role) {
		return models.Membership{}, apperr.Validation("role must be owner, editor or viewer")
	}
	var m models.Membership
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"team_id": teamID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return models.Membership{}, mongoerr.Translate(err, "membership", nil)
	}
	return m, nil
}

// Remove deletes userID's membership in teamID.
func (s *Store) Remove(ctx context.Context, teamID, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"team_id": teamID, "user_id": userID})
	if err != nil {
		return mongoerr.Translate(err, "membership", nil)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("membership")
	}
	return nil
}
