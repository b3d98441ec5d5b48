// internal/app/features/prompts/shares.go
package prompts

import (
	"net/http"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// shareRequest names the target by user_id or, failing that, email.
type shareRequest struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

type permissionRequest struct {
	Permission string `json:"permission"`
}

func (h *Handler) ServeShares(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	shares, err := h.Prompts.ListShares(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req shareRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}

	var target primitive.ObjectID
	switch {
	case req.UserID != "":
		if target, err = primitive.ObjectIDFromHex(req.UserID); err != nil {
			h.fail(w, apperr.Validation("invalid user id %q", req.UserID))
			return
		}
	case strings.TrimSpace(req.Email) != "":
		u, err := h.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			h.fail(w, err)
			return
		}
		target = u.ID
	default:
		h.fail(w, apperr.Validation("user_id or email is required"))
		return
	}

	s, err := h.Prompts.Share(r.Context(), id, target, req.Permission)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) HandleUpdateShare(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	shareID, err := shared.IDParam(r, "shareID", "share")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req permissionRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}
	s, err := h.Prompts.UpdateShare(r.Context(), id, shareID, req.Permission)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) HandleRevokeShare(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	shareID, err := shared.IDParam(r, "shareID", "share")
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Prompts.RevokeShare(r.Context(), id, shareID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
