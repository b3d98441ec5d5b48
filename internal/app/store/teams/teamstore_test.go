package teamstore_test

import (
	"errors"
	"testing"

	teamstore "github.com/dalemusser/promptstash/internal/app/store/teams"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_WritesOwnerMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	team, err := store.Create(ctx, "  Eng  ", owner.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if team.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if team.Name != "Eng" {
		t.Errorf("Name: got %q, want trimmed %q", team.Name, "Eng")
	}

	n := fixtures.Count(ctx, "team_memberships", bson.M{"team_id": team.ID, "user_id": owner.ID, "role": models.RoleOwner})
	if n != 1 {
		t.Errorf("expected owner membership, found %d", n)
	}
}

func TestStore_ListForUser_SortedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "U", "u@test.com")
	other := fixtures.CreateUser(ctx, "O", "o@test.com")

	for _, name := range []string{"zeta", "Alpha", "mid"} {
		if _, err := store.Create(ctx, name, user.ID); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}
	if _, err := store.Create(ctx, "Not Mine", other.ID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	teams, err := store.ListForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	var names []string
	for _, tm := range teams {
		names = append(names, tm.Name)
	}
	want := []string{"Alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestStore_Rename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team, err := store.Create(ctx, "Old", primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	renamed, err := store.Rename(ctx, team.ID, "New")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "New" || renamed.NameCI != "new" {
		t.Errorf("got %+v", renamed)
	}

	if _, err := store.Rename(ctx, primitive.NewObjectID(), "X"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_Delete_Cascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	team := fixtures.CreateTeam(ctx, "Doomed", owner.ID)
	keep := fixtures.CreateTeam(ctx, "Keep", owner.ID)

	folder := fixtures.CreateFolder(ctx, team.ID, nil, "F", owner.ID)
	prompt := fixtures.CreatePrompt(ctx, team.ID, owner.ID, "P")
	tag := fixtures.CreateTag(ctx, team.ID, "t", owner.ID)
	fixtures.AttachTag(ctx, prompt.ID, tag.ID)
	if _, err := db.Collection("prompt_versions").InsertOne(ctx, models.PromptVersion{ID: primitive.NewObjectID(), PromptID: prompt.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Collection("prompt_shares").InsertOne(ctx, models.Share{ID: primitive.NewObjectID(), PromptID: prompt.ID}); err != nil {
		t.Fatal(err)
	}
	kept := fixtures.CreatePrompt(ctx, keep.ID, owner.ID, "Survivor")

	if err := store.Delete(ctx, team.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	checks := []struct {
		coll   string
		filter bson.M
	}{
		{"teams", bson.M{"_id": team.ID}},
		{"team_memberships", bson.M{"team_id": team.ID}},
		{"folders", bson.M{"_id": folder.ID}},
		{"prompts", bson.M{"_id": prompt.ID}},
		{"tags", bson.M{"_id": tag.ID}},
		{"prompt_tags", bson.M{"prompt_id": prompt.ID}},
		{"prompt_versions", bson.M{"prompt_id": prompt.ID}},
		{"prompt_shares", bson.M{"prompt_id": prompt.ID}},
	}
	for _, c := range checks {
		if n := fixtures.Count(ctx, c.coll, c.filter); n != 0 {
			t.Errorf("%s: expected 0 documents after cascade, got %d", c.coll, n)
		}
	}
	if n := fixtures.Count(ctx, "prompts", bson.M{"_id": kept.ID}); n != 1 {
		t.Error("expected other team's prompt to survive")
	}

	if err := store.Delete(ctx, team.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete: expected not found, got %v", err)
	}
}
