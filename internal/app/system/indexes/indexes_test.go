package indexes_test

import (
	"testing"

	"github.com/dalemusser/promptstash/internal/app/system/indexes"
	"github.com/dalemusser/promptstash/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = idx
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesNamedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for _, set := range indexes.All() {
		names := indexNames(t, db, set.Collection)
		for _, m := range set.Models {
			name := *m.Options.Name
			if _, ok := names[name]; !ok {
				t.Errorf("expected index %q on %s", name, set.Collection)
			}
		}
	}
}

func TestEnsureAll_PublicSlugIsUniqueSparse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	idx, ok := indexNames(t, db, "prompts")["uniq_prompts_public_slug"]
	if !ok {
		t.Fatal("expected uniq_prompts_public_slug")
	}
	if idx["unique"] != true || idx["sparse"] != true {
		t.Errorf("expected unique sparse index, got %v", idx)
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("prompt_versions")
	if _, err := coll.Indexes().DropAll(ctx); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "prompt_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("legacy_name"),
	})
	if err != nil {
		t.Fatalf("CreateOne: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "prompt_versions")
	if _, ok := names["legacy_name"]; ok {
		t.Error("expected legacy_name to be replaced")
	}
	if _, ok := names["idx_versions_prompt_created"]; !ok {
		t.Error("expected idx_versions_prompt_created")
	}
}
