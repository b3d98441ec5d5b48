// internal/app/features/prompts/crud.go
package prompts

import (
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
)

type createRequest struct {
	TeamID     *string `json:"team_id"`
	FolderID   *string `json:"folder_id"`
	Title      string  `json:"title"`
	BodyMD     string  `json:"body_md"`
	Visibility string  `json:"visibility"`
}

// updateRequest is a partial edit. folder_id "" moves the prompt to the
// team root; an absent field is left alone.
type updateRequest struct {
	Title      *string `json:"title"`
	BodyMD     *string `json:"body_md"`
	Visibility *string `json:"visibility"`
	FolderID   *string `json:"folder_id"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/p                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}

	teamID, err := shared.OptionalID(req.TeamID, "team")
	if err != nil {
		h.fail(w, err)
		return
	}
	in := lifecycle.CreateInput{Title: req.Title, BodyMD: req.BodyMD, Visibility: req.Visibility}
	if teamID != nil {
		in.TeamID = *teamID
	} else if in.TeamID, err = shared.Team(shared.Session(r)); err != nil {
		h.fail(w, err)
		return
	}
	if in.FolderID, err = shared.OptionalID(req.FolderID, "folder"); err != nil {
		h.fail(w, err)
		return
	}

	p, err := h.Prompts.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusCreated, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/p/{promptID}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.Prompts.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /app/p/{promptID}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req updateRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}

	patch := lifecycle.Patch{Title: req.Title, BodyMD: req.BodyMD, Visibility: req.Visibility}
	if req.FolderID != nil {
		if *req.FolderID == "" {
			patch.ClearFolder = true
		} else if patch.FolderID, err = shared.OptionalID(req.FolderID, "folder"); err != nil {
			h.fail(w, err)
			return
		}
	}

	p, err := h.Prompts.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /app/p/{promptID}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Prompts.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.ForgetPrompts(id)
	w.WriteHeader(http.StatusNoContent)
}
