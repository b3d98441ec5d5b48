// internal/app/features/tags/handler.go
package tags

import (
	"context"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/services/organize"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the team tag namespace under /app/tags. Attaching tags to a
// prompt lives with the prompt routes.
type Handler struct {
	Org *organize.Service
	Log *zap.Logger
}

func NewHandler(org *organize.Service, logger *zap.Logger) *Handler {
	return &Handler{Org: org, Log: logger}
}

type createRequest struct {
	Name string `json:"name"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/tags                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tags, err := h.Org.ListTags(ctx, teamID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/tags                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req createRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tag, err := h.Org.CreateTag(ctx, teamID, req.Name)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusCreated, tag)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /app/tags/{tagID}                                                     |
| Detaches the tag from every prompt.                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "tagID", "tag")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Org.DeleteTag(ctx, id); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("tag deleted", zap.String("tag_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
