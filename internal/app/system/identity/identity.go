// Package identity carries the authenticated caller through a context.
//
// The HTTP session middleware stores the identity; services read it before
// any mutating store call and fail with apperr.ErrUnauthenticated when it is
// missing. The CLI installs one explicitly with With.
package identity

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID primitive.ObjectID
	Name   string
	Email  string
}

type ctxKey struct{}

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller and whether one is present.
// A zero UserID counts as absent.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID.IsZero() {
		return Identity{}, false
	}
	return id, true
}
