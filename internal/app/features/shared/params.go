// internal/app/features/shared/params.go
package shared

import (
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/workbench"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDParam parses the chi URL parameter name as an ObjectID. A malformed id
// cannot name a record, so it reads as NotFound for what.
func IDParam(r *http.Request, name, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(what)
	}
	return oid, nil
}

// ParseIDs parses hex ids from a request body.
func ParseIDs(hexes []string, what string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		oid, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, apperr.Validation("invalid %s id %q", what, h)
		}
		out = append(out, oid)
	}
	return out, nil
}

// OptionalID parses a nullable hex id. Nil and "" both mean none.
func OptionalID(hex *string, what string) (*primitive.ObjectID, error) {
	if hex == nil || *hex == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(*hex)
	if err != nil {
		return nil, apperr.Validation("invalid %s id %q", what, *hex)
	}
	return &oid, nil
}

// Team returns the session's team or a validation error when none is
// selected.
func Team(s workbench.Session) (primitive.ObjectID, error) {
	if !s.HasTeam() {
		return primitive.NilObjectID, apperr.Validation("no team selected; create or choose a team first")
	}
	return s.TeamID, nil
}
