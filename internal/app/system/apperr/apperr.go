// Package apperr defines the error taxonomy shared by stores, services and
// handlers.
//
// Every error produced by PromptStash code unwraps to exactly one of the kind
// sentinels below, so callers branch with errors.Is:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
//
// Handlers are the only place errors are turned into user-visible responses;
// nothing below them retries.
package apperr

import (
	"errors"
	"fmt"
)

// Kind sentinels.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation error")
	ErrStore           = errors.New("store error")
)

// Error carries a kind, a human-readable message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unauthenticated reports that an operation needed an identity and had none.
func Unauthenticated() error {
	return &Error{Kind: ErrUnauthenticated, Msg: "not authenticated"}
}

// NotFound reports that no visible record matched. what names the entity.
func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Msg: what + " not found"}
}

// Conflict reports a uniqueness or referential-integrity violation.
func Conflict(msg string, cause error) error {
	return &Error{Kind: ErrConflict, Msg: msg, Err: cause}
}

// Validation reports bad input detected before touching the store.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps any other backend failure. The driver message is passed through.
func Store(cause error) error {
	if cause == nil {
		return nil
	}
	var ae *Error
	if errors.As(cause, &ae) {
		return cause
	}
	return &Error{Kind: ErrStore, Err: cause}
}

// KindOf returns the kind sentinel for err, or ErrStore for foreign errors.
func KindOf(err error) error {
	for _, k := range []error{ErrUnauthenticated, ErrNotFound, ErrConflict, ErrValidation, ErrStore} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrStore
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}
