package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data with raw inserts,
// independent of the stores under test.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert into %s: %v", coll, err)
	}
}

// CreateUser creates a password user.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	u := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		EmailCI:    text.Fold(email),
		Name:       name,
		AuthMethod: models.AuthPassword,
		CreatedAt:  time.Now().UTC(),
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateTeam creates a team and its owner membership.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, ownerID primitive.ObjectID) models.Team {
	f.t.Helper()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "teams", team)
	f.AddMember(ctx, team.ID, ownerID, models.RoleOwner)
	return team
}

// AddMember grants userID a role in teamID.
func (f *Fixtures) AddMember(ctx context.Context, teamID, userID primitive.ObjectID, role string) models.Membership {
	f.t.Helper()
	m := models.Membership{TeamID: teamID, UserID: userID, Role: role, CreatedAt: time.Now().UTC()}
	f.insert(ctx, "team_memberships", m)
	return m
}

// CreateFolder creates a folder; parentID may be nil.
func (f *Fixtures) CreateFolder(ctx context.Context, teamID primitive.ObjectID, parentID *primitive.ObjectID, name string, createdBy primitive.ObjectID) models.Folder {
	f.t.Helper()
	folder := models.Folder{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		ParentID:  parentID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "folders", folder)
	return folder
}

// CreatePrompt creates a private prompt at the team root.
func (f *Fixtures) CreatePrompt(ctx context.Context, teamID, ownerID primitive.ObjectID, title string) models.Prompt {
	f.t.Helper()
	now := time.Now().UTC()
	p := models.Prompt{
		ID:         primitive.NewObjectID(),
		TeamID:     teamID,
		OwnerID:    ownerID,
		Title:      title,
		TitleCI:    text.Fold(title),
		BodyMD:     "body of " + title,
		Visibility: models.VisibilityPrivate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "prompts", p)
	return p
}

// CreateTag creates a tag.
func (f *Fixtures) CreateTag(ctx context.Context, teamID primitive.ObjectID, name string, createdBy primitive.ObjectID) models.Tag {
	f.t.Helper()
	tag := models.Tag{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "tags", tag)
	return tag
}

// AttachTag associates a tag with a prompt.
func (f *Fixtures) AttachTag(ctx context.Context, promptID, tagID primitive.ObjectID) {
	f.t.Helper()
	f.insert(ctx, "prompt_tags", models.PromptTag{PromptID: promptID, TagID: tagID})
}

// Count returns the number of documents in coll matching filter.
func (f *Fixtures) Count(ctx context.Context, coll string, filter any) int64 {
	f.t.Helper()
	n, err := f.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		f.t.Fatalf("count %s: %v", coll, err)
	}
	return n
}
