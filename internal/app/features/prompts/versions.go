// internal/app/features/prompts/versions.go
package prompts

import (
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
)

type versionRequest struct {
	ChangeNote *string `json:"change_note"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/p/{promptID}/versions  (newest first)                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeVersions(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	versions, err := h.Prompts.ListVersions(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/p/{promptID}/versions                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req versionRequest
	if r.ContentLength != 0 {
		if err := jsonutil.Decode(w, r, 0, &req); err != nil {
			h.fail(w, err)
			return
		}
	}
	v, err := h.Prompts.CreateVersion(r.Context(), id, req.ChangeNote)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusCreated, v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/p/{promptID}/versions/{versionID}/restore                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	versionID, err := shared.IDParam(r, "versionID", "version")
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.Prompts.RestoreVersion(r.Context(), id, versionID)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, p)
}
