package tagstore_test

import (
	"errors"
	"testing"

	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_UniquePerTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tagstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamA, teamB := primitive.NewObjectID(), primitive.NewObjectID()
	user := primitive.NewObjectID()

	if _, err := store.Create(ctx, teamA, " draft ", user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, teamA, "draft", user); err != tagstore.ErrDuplicateTag {
		t.Errorf("same team: expected ErrDuplicateTag, got %v", err)
	}
	if _, err := store.Create(ctx, teamB, "draft", user); err != nil {
		t.Errorf("other team: expected success, got %v", err)
	}
}

func TestStore_List_SortedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tagstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID, user := primitive.NewObjectID(), primitive.NewObjectID()
	for _, n := range []string{"zeta", "Alpha", "mid"} {
		if _, err := store.Create(ctx, teamID, n, user); err != nil {
			t.Fatal(err)
		}
	}

	tags, err := store.List(ctx, teamID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"Alpha", "mid", "zeta"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(tags))
	}
	for i, tag := range tags {
		if tag.Name != want[i] {
			t.Errorf("position %d: got %q, want %q", i, tag.Name, want[i])
		}
	}
}

func TestStore_AttachDetach(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tagstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID, user := primitive.NewObjectID(), primitive.NewObjectID()
	promptID := primitive.NewObjectID()
	tag, _ := store.Create(ctx, teamID, "t", user)

	if err := store.Attach(ctx, promptID, tag.ID); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := store.Attach(ctx, promptID, tag.ID); err != tagstore.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	tags, err := store.ListForPrompt(ctx, promptID)
	if err != nil {
		t.Fatalf("ListForPrompt failed: %v", err)
	}
	if len(tags) != 1 || tags[0].ID != tag.ID {
		t.Errorf("expected the attached tag, got %v", tags)
	}

	if err := store.Detach(ctx, promptID, tag.ID); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := store.Detach(ctx, promptID, tag.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Detach: expected not found, got %v", err)
	}

	tags, _ = store.ListForPrompt(ctx, promptID)
	if len(tags) != 0 {
		t.Errorf("expected no tags, got %d", len(tags))
	}
}

func TestStore_ListForPrompt_DropsDanglingRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tagstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID, user := primitive.NewObjectID(), primitive.NewObjectID()
	promptID := primitive.NewObjectID()
	kept, _ := store.Create(ctx, teamID, "kept", user)
	_ = store.Attach(ctx, promptID, kept.ID)

	// a join row pointing at a tag that was removed out of band
	if _, err := db.Collection(tagstore.JoinCollection).InsertOne(ctx,
		bson.M{"prompt_id": promptID, "tag_id": primitive.NewObjectID()}); err != nil {
		t.Fatal(err)
	}

	tags, err := store.ListForPrompt(ctx, promptID)
	if err != nil {
		t.Fatalf("ListForPrompt failed: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "kept" {
		t.Errorf("expected only the live tag, got %v", tags)
	}
}

func TestStore_Delete_RemovesAssociations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tagstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID, user := primitive.NewObjectID(), primitive.NewObjectID()
	tag, _ := store.Create(ctx, teamID, "t", user)
	for i := 0; i < 3; i++ {
		_ = store.Attach(ctx, primitive.NewObjectID(), tag.ID)
	}

	if err := store.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n := fixtures.Count(ctx, tagstore.JoinCollection, bson.M{"tag_id": tag.ID}); n != 0 {
		t.Errorf("expected associations removed, %d left", n)
	}
	if _, err := store.GetByID(ctx, tag.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
