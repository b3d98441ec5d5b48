// internal/app/features/prompts/save.go
package prompts

import (
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/metrics"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type saveRequest struct {
	Revision   int64   `json:"revision"`
	Title      string  `json:"title"`
	BodyMD     string  `json:"body_md"`
	ChangeNote *string `json:"change_note"`
}

type autosaveRequest struct {
	Revision int64  `json:"revision"`
	Title    string `json:"title"`
	BodyMD   string `json:"body_md"`
}

type autosaveResponse struct {
	Applied  bool  `json:"applied"`
	Revision int64 `json:"revision"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/p/{promptID}/save                                                  |
| The editor sends the revision it took for this save. It goes through the     |
| same gate as autosaves, so an older autosave arriving later is not written.  |
| A save without a revision is written as is and leaves the gate alone.        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req saveRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}
	if req.Revision < 0 {
		h.fail(w, apperr.Validation("revision must be positive"))
		return
	}

	in := lifecycle.SaveInput{
		Title:      req.Title,
		BodyMD:     req.BodyMD,
		ChangeNote: req.ChangeNote,
		Mode:       lifecycle.Manual,
	}
	var p models.Prompt
	write := func() error {
		var err error
		p, err = h.Prompts.Save(r.Context(), id, in)
		return err
	}

	if req.Revision == 0 {
		if err := write(); err != nil {
			h.fail(w, err)
			return
		}
		jsonutil.WriteJSON(w, http.StatusOK, p)
		return
	}

	key := gateKey(id, shared.Session(r).UserID)
	applied, err := h.Gate.Apply(key, req.Revision, write)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !applied {
		h.fail(w, apperr.Conflict("a newer revision is already saved", nil))
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/p/{promptID}/autosave                                              |
| Revisions are the editor's logical clock. A revision at or below the last    |
| one applied for this prompt and user is acknowledged without writing. A      |
| failed write does not consume its revision.                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAutosave(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req autosaveRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}
	if req.Revision <= 0 {
		h.fail(w, apperr.Validation("revision must be positive"))
		return
	}

	sess := shared.Session(r)
	key := gateKey(id, sess.UserID)
	applied, err := h.Gate.Apply(key, req.Revision, func() error {
		_, err := h.Prompts.Save(r.Context(), id, lifecycle.SaveInput{
			Title:  req.Title,
			BodyMD: req.BodyMD,
			Mode:   lifecycle.Autosave,
		})
		return err
	})
	if err != nil {
		h.Log.Warn("autosave failed",
			zap.String("prompt_id", id.Hex()),
			zap.String("user_id", sess.UserID.Hex()),
			zap.Int64("revision", req.Revision),
			zap.Error(err))
		h.fail(w, err)
		return
	}
	if !applied {
		metrics.RecordStaleAutosave()
		jsonutil.WriteJSON(w, http.StatusOK, autosaveResponse{Applied: false, Revision: h.Gate.Applied(key)})
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, autosaveResponse{Applied: true, Revision: req.Revision})
}

// gateKey scopes revisions to one editor of one prompt, so one user's
// clock cannot hold back another's saves.
func gateKey(promptID, userID primitive.ObjectID) string {
	return gatePrefix(promptID) + userID.Hex()
}

func gatePrefix(promptID primitive.ObjectID) string {
	return promptID.Hex() + ":"
}
