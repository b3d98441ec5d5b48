// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE hands DBDeps to every hook by value. Releaser is the one pointer
// they share: BuildHandler registers what it opened and Shutdown closes it.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Releaser      *Releaser
}

// Releaser collects close functions and runs them once, last registered
// first.
type Releaser struct {
	mu  sync.Mutex
	fns []func(*zap.Logger)
}

func NewReleaser() *Releaser { return &Releaser{} }

// Add registers fn to run on Release.
func (r *Releaser) Add(fn func(*zap.Logger)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns = append(r.fns, fn)
}

// Release runs and forgets every registered function.
func (r *Releaser) Release(logger *zap.Logger) {
	r.mu.Lock()
	fns := r.fns
	r.fns = nil
	r.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i](logger)
	}
}
