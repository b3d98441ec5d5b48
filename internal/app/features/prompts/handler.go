// internal/app/features/prompts/handler.go
package prompts

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/workbench"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserFinder resolves share targets given by email.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// Handler serves the prompt editor and detail API under /app/p.
type Handler struct {
	Prompts *lifecycle.Manager
	Users   UserFinder
	Gate    *workbench.RevisionGate
	Log     *zap.Logger
}

func NewHandler(prompts *lifecycle.Manager, users UserFinder, logger *zap.Logger) *Handler {
	return &Handler{
		Prompts: prompts,
		Users:   users,
		Gate:    workbench.NewRevisionGate(),
		Log:     logger,
	}
}

// ForgetPrompts drops the autosave clocks of deleted prompts.
func (h *Handler) ForgetPrompts(ids ...primitive.ObjectID) {
	for _, id := range ids {
		h.Gate.ForgetPrefix(gatePrefix(id))
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, lifecycle.ErrSyncFailed) {
		jsonutil.WriteJSON(w, http.StatusConflict, map[string]string{
			"error":   "sync failed",
			"message": err.Error(),
		})
		return
	}
	jsonutil.WriteError(w, h.Log, err)
}
