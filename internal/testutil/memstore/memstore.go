// Package memstore is an in-memory stand-in for the MongoDB stores, used by
// service and handler tests. It reproduces the stores' observable contract:
// unique keys surface as the same Conflict sentinels, missing rows as
// NotFound, and deletes cascade exactly as the Mongo stores do.
//
// Failures can be injected per operation and record id with FailOn.
package memstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds every collection. The typed accessors (Prompts, Tags, ...) return
// views that satisfy the corresponding service-side store interfaces.
type DB struct {
	mu sync.Mutex

	users    map[primitive.ObjectID]models.User
	teams    map[primitive.ObjectID]models.Team
	members  []models.Membership
	folders  map[primitive.ObjectID]models.Folder
	prompts  map[primitive.ObjectID]models.Prompt
	tags     map[primitive.ObjectID]models.Tag
	joins    []models.PromptTag
	versions map[primitive.ObjectID]models.PromptVersion
	shares   map[primitive.ObjectID]models.Share

	clock time.Time
	fail  map[string]error
	calls map[string]int
}

func New() *DB {
	return &DB{
		users:    map[primitive.ObjectID]models.User{},
		teams:    map[primitive.ObjectID]models.Team{},
		folders:  map[primitive.ObjectID]models.Folder{},
		prompts:  map[primitive.ObjectID]models.Prompt{},
		tags:     map[primitive.ObjectID]models.Tag{},
		versions: map[primitive.ObjectID]models.PromptVersion{},
		shares:   map[primitive.ObjectID]models.Share{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		fail:     map[string]error{},
		calls:    map[string]int{},
	}
}

// FailOn makes op fail with err whenever it is called for id. A zero id
// matches every call. op is "<collection>.<Method>", e.g. "prompts.Delete".
func (db *DB) FailOn(op string, id primitive.ObjectID, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[failKey(op, id)] = err
}

// Calls reports how many times op was invoked.
func (db *DB) Calls(op string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[op]
}

func failKey(op string, id primitive.ObjectID) string {
	return fmt.Sprintf("%s:%s", op, id.Hex())
}

// enter records a call and returns any injected failure. Callers hold mu.
func (db *DB) enter(op string, id primitive.ObjectID) error {
	db.calls[op]++
	if err, ok := db.fail[failKey(op, id)]; ok {
		return err
	}
	if err, ok := db.fail[failKey(op, primitive.NilObjectID)]; ok {
		return err
	}
	return nil
}

// now returns a strictly increasing timestamp so ordering by time is stable.
func (db *DB) now() time.Time {
	db.clock = db.clock.Add(time.Millisecond)
	return db.clock
}

func sortByKey[T any](s []T, key func(T) string, id func(T) primitive.ObjectID) {
	sort.SliceStable(s, func(i, j int) bool {
		ki, kj := key(s[i]), key(s[j])
		if ki != kj {
			return ki < kj
		}
		return id(s[i]).Hex() < id(s[j]).Hex()
	})
}
