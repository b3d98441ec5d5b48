package workbench

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
)

// ErrSyncFailed is returned when a remote sync failed and the local value
// was rolled back.
var ErrSyncFailed = lifecycle.ErrSyncFailed

// Optimistic holds a local value that is changed before the server confirms.
// A failed sync restores the snapshot taken before the change.
type Optimistic[T any] struct {
	op    sync.Mutex
	mu    sync.Mutex
	value T
	clone func(T) T
}

// NewOptimistic wraps v. clone must deep-copy values that share memory,
// such as slices; nil means values are copied by assignment.
func NewOptimistic[T any](v T, clone func(T) T) *Optimistic[T] {
	if clone == nil {
		clone = func(x T) T { return x }
	}
	return &Optimistic[T]{value: v, clone: clone}
}

func (o *Optimistic[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clone(o.value)
}

// Set replaces the value, e.g. with the server's confirmed state.
func (o *Optimistic[T]) Set(v T) {
	o.mu.Lock()
	o.value = v
	o.mu.Unlock()
}

// Apply sets the local value to change(current), then runs remote with it.
// If remote fails the previous value is restored and the error wraps
// ErrSyncFailed. Applies are serialized.
func (o *Optimistic[T]) Apply(ctx context.Context, change func(T) T, remote func(context.Context, T) error) (T, error) {
	o.op.Lock()
	defer o.op.Unlock()

	o.mu.Lock()
	snapshot := o.clone(o.value)
	next := change(o.clone(o.value))
	o.value = next
	o.mu.Unlock()

	if err := remote(ctx, o.clone(next)); err != nil {
		o.Set(snapshot)
		if errors.Is(err, ErrSyncFailed) {
			return o.clone(snapshot), err
		}
		return o.clone(snapshot), fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}
	return o.clone(next), nil
}
