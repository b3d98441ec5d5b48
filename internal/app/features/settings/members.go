// internal/app/features/settings/members.go
package settings

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memberView struct {
	UserID    primitive.ObjectID `json:"user_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      string             `json:"role"`
	CreatedAt time.Time          `json:"created_at"`
}

// addMemberRequest names the user by user_id or, failing that, email.
type addMemberRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type roleRequest struct {
	Role string `json:"role"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/settings/teams/{teamID}/members                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.IDParam(r, "teamID", "team")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Org.ListMembers(ctx, teamID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	out := make([]memberView, 0, len(members))
	for _, m := range members {
		v := memberView{UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt}
		u, err := h.Users.GetByID(ctx, m.UserID)
		switch {
		case err == nil:
			v.Name, v.Email = u.Name, u.Email
		case apperr.KindOf(err) == apperr.ErrNotFound:
			h.Log.Debug("member without user record", zap.String("user_id", m.UserID.Hex()))
		default:
			jsonutil.WriteError(w, h.Log, err)
			return
		}
		out = append(out, v)
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/settings/teams/{teamID}/members                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.IDParam(r, "teamID", "team")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req addMemberRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var userID primitive.ObjectID
	switch {
	case req.UserID != "":
		if userID, err = primitive.ObjectIDFromHex(req.UserID); err != nil {
			jsonutil.WriteError(w, h.Log, apperr.Validation("invalid user id %q", req.UserID))
			return
		}
	case strings.TrimSpace(req.Email) != "":
		u, err := h.Users.GetByEmail(ctx, req.Email)
		if err != nil {
			jsonutil.WriteError(w, h.Log, err)
			return
		}
		userID = u.ID
	default:
		jsonutil.WriteError(w, h.Log, apperr.Validation("user_id or email is required"))
		return
	}

	m, err := h.Org.AddMember(ctx, teamID, userID, req.Role)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusCreated, m)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /app/settings/teams/{teamID}/members/{userID}                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.IDParam(r, "teamID", "team")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	userID, err := shared.IDParam(r, "userID", "member")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req roleRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Org.ChangeRole(ctx, teamID, userID, req.Role)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, m)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /app/settings/teams/{teamID}/members/{userID}                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.IDParam(r, "teamID", "team")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	userID, err := shared.IDParam(r, "userID", "member")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Org.RemoveMember(ctx, teamID, userID); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
