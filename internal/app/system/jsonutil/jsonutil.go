// Package jsonutil reads and writes the JSON bodies of the /app API.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"go.uber.org/zap"
)

// DefaultMaxBody caps request bodies when the caller gives no limit.
const DefaultMaxBody = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrUnauthenticated:
		return http.StatusUnauthorized
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"error": kind, "message": msg}. Store errors are
// logged; everything else is an expected outcome.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	WriteJSON(w, status, errorBody{
		Error:   apperr.KindOf(err).Error(),
		Message: apperr.Message(err),
	})
}

// Decode reads a JSON body of at most maxBytes into dst. Malformed bodies
// come back as validation errors.
func Decode(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return apperr.Validation("request body exceeds %d bytes", mbe.Limit)
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		default:
			return apperr.Validation("invalid JSON: %v", err)
		}
	}
	if dec.More() {
		return apperr.Validation("request body must hold a single JSON value")
	}
	return nil
}

// Attachment sets headers for a JSON download named filename.
func Attachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
