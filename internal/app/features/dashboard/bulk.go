// internal/app/features/dashboard/bulk.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkFailure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// bulkDeleteResponse lists what was deleted and why the rest was not. The
// client removes only the deleted ids from its list and selection.
type bulkDeleteResponse struct {
	Deleted []primitive.ObjectID   `json:"deleted"`
	Failed  map[string]bulkFailure `json:"failed"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/bulk-delete                                                        |
| Deletes run concurrently; a partial failure is reported, not rolled back.    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if len(req.IDs) == 0 {
		jsonutil.WriteError(w, h.Log, apperr.Validation("no prompts selected"))
		return
	}
	ids, err := shared.ParseIDs(req.IDs, "prompt")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Prompts.BulkDelete(ctx, ids)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	if h.OnDeleted != nil && len(res.Deleted) > 0 {
		h.OnDeleted(res.Deleted...)
	}

	out := bulkDeleteResponse{
		Deleted: res.Deleted,
		Failed:  make(map[string]bulkFailure, len(res.Failed)),
	}
	if out.Deleted == nil {
		out.Deleted = []primitive.ObjectID{}
	}
	for id, ferr := range res.Failed {
		out.Failed[id.Hex()] = bulkFailure{Error: apperr.KindOf(ferr).Error(), Message: apperr.Message(ferr)}
	}
	if len(res.Failed) > 0 {
		h.Log.Warn("bulk delete partially failed",
			zap.Int("deleted", len(res.Deleted)),
			zap.Int("failed", len(res.Failed)))
	}
	jsonutil.WriteJSON(w, http.StatusOK, out)
}
