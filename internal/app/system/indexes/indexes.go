// Package indexes reconciles MongoDB indexes at startup.
//
// Each store package owns its index models (store.Indexes()). EnsureAll walks
// every store and makes the live indexes match: missing indexes are created,
// an index with the same keys but different options is dropped and rebuilt,
// and an index with the right shape but the wrong name is renamed.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	folderstore "github.com/dalemusser/promptstash/internal/app/store/folders"
	membershipstore "github.com/dalemusser/promptstash/internal/app/store/memberships"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	sharestore "github.com/dalemusser/promptstash/internal/app/store/shares"
	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	teamstore "github.com/dalemusser/promptstash/internal/app/store/teams"
	userstore "github.com/dalemusser/promptstash/internal/app/store/users"
	versionstore "github.com/dalemusser/promptstash/internal/app/store/versions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Set is the desired index list for one collection.
type Set struct {
	Collection string
	Models     []mongo.IndexModel
}

// All returns every index set PromptStash needs.
func All() []Set {
	return []Set{
		{userstore.Collection, userstore.Indexes()},
		{teamstore.Collection, teamstore.Indexes()},
		{membershipstore.Collection, membershipstore.Indexes()},
		{folderstore.Collection, folderstore.Indexes()},
		{promptstore.Collection, promptstore.Indexes()},
		{tagstore.Collection, tagstore.Indexes()},
		{tagstore.JoinCollection, tagstore.JoinIndexes()},
		{versionstore.Collection, versionstore.Indexes()},
		{sharestore.Collection, sharestore.Indexes()},
	}
}

/*
EnsureAll is called at startup. Reconciliation is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, set := range All() {
		if err := ensureIndexSet(ctx, db.Collection(set.Collection), set.Models, logger); err != nil {
			problems = append(problems, set.Collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
	Sparse *bool  `bson:"sparse,omitempty"`
}

type desiredIndex struct {
	name   string
	sig    string
	unique bool
	sparse bool
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(b *bool) bool { return b != nil && *b }

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = boolOf(m.Options.Unique)
		d.sparse = boolOf(m.Options.Sparse)
	}
	return d
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listExisting(ctx, coll, logger)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		want := describe(m)
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", want.name),
			zap.String("keys", want.sig),
			zap.Bool("unique", want.unique))

		ex, found := existing[want.sig]
		switch {
		case found && boolOf(ex.Unique) == want.unique && boolOf(ex.Sparse) == want.sparse:
			if want.name == "" || ex.Name == want.name {
				log.Debug("reusing existing index")
				continue
			}
			log.Info("renaming index to align with desired name", zap.String("from", ex.Name))
			if err := recreate(ctx, coll, ex.Name, m); err != nil {
				errs = append(errs, fmt.Sprintf("%s: rename: %v", want.name, err))
				continue
			}
		case found:
			log.Info("index options changed; rebuilding", zap.String("from", ex.Name))
			if err := recreate(ctx, coll, ex.Name, m); err != nil {
				errs = append(errs, explain(want, err))
				continue
			}
		default:
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				log.Warn("index ensure failed", zap.Error(err))
				errs = append(errs, explain(want, err))
				continue
			}
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func recreate(ctx context.Context, coll *mongo.Collection, oldName string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, oldName); err != nil {
		return fmt.Errorf("drop %s: %w", oldName, err)
	}
	_, err := coll.Indexes().CreateOne(ctx, m)
	return err
}

func explain(want desiredIndex, err error) string {
	if want.unique && isDuplicateKeyErr(err) {
		return fmt.Sprintf("%s: cannot create unique index on {%s} (duplicates present)", want.name, want.sig)
	}
	return fmt.Sprintf("%s: %v", want.name, err)
}
