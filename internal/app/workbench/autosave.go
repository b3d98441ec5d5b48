package workbench

import (
	"context"
	"time"
)

// Draft is the editable content of a prompt.
type Draft struct {
	Title  string `json:"title"`
	BodyMD string `json:"body_md"`
}

// SaveFunc persists d as revision rev.
type SaveFunc func(ctx context.Context, rev int64, d Draft) error

// Autosaver debounces edits into saves. Every save takes a fresh revision
// from the gate; a save that completes after a newer one was applied is
// discarded, so a slow autosave cannot clobber a later manual save.
//
// Autosave failures go to the error hook only. SaveNow returns its error.
type Autosaver struct {
	ctx     context.Context
	key     string
	gate    *RevisionGate
	deb     *Debouncer
	save    SaveFunc
	onErr   func(error)
	onSaved func(rev int64, d Draft)
}

type AutosaverOption func(*Autosaver)

// OnError sets the hook for failed autosaves.
func OnError(fn func(error)) AutosaverOption {
	return func(a *Autosaver) { a.onErr = fn }
}

// OnSaved sets the hook called for each applied save.
func OnSaved(fn func(rev int64, d Draft)) AutosaverOption {
	return func(a *Autosaver) { a.onSaved = fn }
}

// NewAutosaver builds an Autosaver for key. Debounced saves run with ctx.
func NewAutosaver(ctx context.Context, key string, wait time.Duration, gate *RevisionGate, save SaveFunc, opts ...AutosaverOption) *Autosaver {
	a := &Autosaver{
		ctx:     ctx,
		key:     key,
		gate:    gate,
		deb:     NewDebouncer(wait),
		save:    save,
		onErr:   func(error) {},
		onSaved: func(int64, Draft) {},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Edit records the latest content; it is saved once edits pause.
func (a *Autosaver) Edit(d Draft) {
	a.deb.Call(func() {
		if err := a.run(a.ctx, d); err != nil {
			a.onErr(err)
		}
	})
}

// SaveNow cancels any pending autosave and saves d immediately.
func (a *Autosaver) SaveNow(ctx context.Context, d Draft) error {
	a.deb.Cancel()
	return a.run(ctx, d)
}

// Flush runs a pending autosave now.
func (a *Autosaver) Flush() { a.deb.Flush() }

// Pending reports whether an autosave is scheduled.
func (a *Autosaver) Pending() bool { return a.deb.Pending() }

// Stop drops any pending autosave. Further edits are ignored.
func (a *Autosaver) Stop() { a.deb.Stop() }

func (a *Autosaver) run(ctx context.Context, d Draft) error {
	rev := a.gate.Next(a.key)
	if err := a.save(ctx, rev, d); err != nil {
		return err
	}
	if a.gate.TryApply(a.key, rev) {
		a.onSaved(rev, d)
	}
	return nil
}
