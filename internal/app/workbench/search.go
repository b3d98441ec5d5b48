package workbench

import (
	"context"
	"time"
)

// SearchBox debounces queries and applies only the response to the latest
// query issued. Earlier in-flight responses are dropped on arrival.
type SearchBox[T any] struct {
	ctx    context.Context
	seq    Sequencer
	deb    *Debouncer
	search func(ctx context.Context, q string) (T, error)
	apply  func(q string, res T)
	onErr  func(error)
}

func NewSearchBox[T any](ctx context.Context, wait time.Duration,
	search func(ctx context.Context, q string) (T, error),
	apply func(q string, res T), onErr func(error)) *SearchBox[T] {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &SearchBox[T]{ctx: ctx, deb: NewDebouncer(wait), search: search, apply: apply, onErr: onErr}
}

// Input is called on every keystroke.
func (s *SearchBox[T]) Input(q string) {
	s.deb.Call(func() { s.Run(q) })
}

// Run searches for q immediately.
func (s *SearchBox[T]) Run(q string) {
	n := s.seq.Next()
	res, err := s.search(s.ctx, q)
	if !s.seq.IsLatest(n) {
		return
	}
	if err != nil {
		s.onErr(err)
		return
	}
	s.apply(q, res)
}

func (s *SearchBox[T]) Flush() { s.deb.Flush() }

func (s *SearchBox[T]) Stop() { s.deb.Stop() }
