package versionstore_test

import (
	"errors"
	"testing"
	"time"

	versionstore "github.com/dalemusser/promptstash/internal/app/store/versions"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndList_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := versionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	promptID, user := primitive.NewObjectID(), primitive.NewObjectID()
	note := "first cut"
	first, err := store.Create(ctx, models.PromptVersion{PromptID: promptID, Title: "v1", BodyMD: "one", CreatedBy: user, ChangeNote: &note})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID == primitive.NilObjectID || first.CreatedAt.IsZero() {
		t.Error("expected id and timestamp to be assigned")
	}
	time.Sleep(5 * time.Millisecond)
	second, _ := store.Create(ctx, models.PromptVersion{PromptID: promptID, Title: "v2", BodyMD: "two", CreatedBy: user})
	if _, err := store.Create(ctx, models.PromptVersion{PromptID: primitive.NewObjectID(), Title: "other"}); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx, promptID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Error("expected newest version first")
	}
	if list[1].ChangeNote == nil || *list[1].ChangeNote != note {
		t.Errorf("ChangeNote: got %v", list[1].ChangeNote)
	}

	got, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.BodyMD != "one" {
		t.Errorf("BodyMD: got %q", got.BodyMD)
	}
}

func TestStore_List_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := versionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	list, err := store.List(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", list)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
