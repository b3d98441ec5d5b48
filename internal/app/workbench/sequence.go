package workbench

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Sequencer numbers requests so that only the response to the most recently
// issued one is used.
type Sequencer struct {
	n atomic.Uint64
}

func (s *Sequencer) Next() uint64 { return s.n.Add(1) }

// IsLatest reports whether n is the last number handed out.
func (s *Sequencer) IsLatest(n uint64) bool { return s.n.Load() == n }

// RevisionGate keeps a logical clock per key. Writers take a revision with
// Next and commit with TryApply or Apply, which refuse anything not newer
// than the last applied revision. Arrival order does not matter.
type RevisionGate struct {
	mu   sync.Mutex
	revs map[string]*revision
}

type revision struct {
	write   sync.Mutex // held by Apply across check and write
	issued  int64
	applied int64
}

func NewRevisionGate() *RevisionGate {
	return &RevisionGate{revs: map[string]*revision{}}
}

func (g *RevisionGate) entry(key string) *revision {
	r, ok := g.revs[key]
	if !ok {
		r = &revision{}
		g.revs[key] = r
	}
	return r
}

// Next issues a revision for key, greater than any issued or applied so far.
func (g *RevisionGate) Next(key string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.entry(key)
	if r.applied > r.issued {
		r.issued = r.applied
	}
	r.issued++
	return r.issued
}

// TryApply marks rev as applied if it is newer than the last applied
// revision for key.
func (g *RevisionGate) TryApply(key string, rev int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.entry(key)
	if rev <= r.applied {
		return false
	}
	r.applied = rev
	return true
}

// Apply runs write if rev is newer than the last applied revision for key,
// and records rev only when write succeeds. Writers on the same key run one
// at a time, so a passing revision never lands after a newer one. A failed
// write leaves the clock untouched and may be retried with the same rev.
func (g *RevisionGate) Apply(key string, rev int64, write func() error) (bool, error) {
	g.mu.Lock()
	r := g.entry(key)
	g.mu.Unlock()

	r.write.Lock()
	defer r.write.Unlock()

	g.mu.Lock()
	stale := rev <= r.applied
	g.mu.Unlock()
	if stale {
		return false, nil
	}
	if err := write(); err != nil {
		return false, err
	}

	g.mu.Lock()
	if rev > r.applied {
		r.applied = rev
	}
	g.mu.Unlock()
	return true, nil
}

// Applied returns the last applied revision for key, 0 if none.
func (g *RevisionGate) Applied(key string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.revs[key]; ok {
		return r.applied
	}
	return 0
}

// Forget drops key, e.g. after its record is deleted.
func (g *RevisionGate) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.revs, key)
}

// ForgetPrefix drops every key starting with prefix and returns how many
// were dropped.
func (g *RevisionGate) ForgetPrefix(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k := range g.revs {
		if strings.HasPrefix(k, prefix) {
			delete(g.revs, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (g *RevisionGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.revs)
}
