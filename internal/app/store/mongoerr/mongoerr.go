// Package mongoerr maps MongoDB driver errors onto the apperr taxonomy.
package mongoerr

import (
	"errors"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

// Translate converts err for an operation on what ("prompt", "tag", ...).
// No-documents becomes NotFound; a duplicate key becomes dup (or a generic
// Conflict when dup is nil); anything else is a StoreError.
func Translate(err error, what string, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(what)
	case wafflemongo.IsDup(err):
		if dup != nil {
			return dup
		}
		return apperr.Conflict(what+" already exists", err)
	default:
		return apperr.Store(err)
	}
}
