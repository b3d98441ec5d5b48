// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler serves the signed-in state for the browser client.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool                `json:"isAuthenticated"`
	UserID          *primitive.ObjectID `json:"user_id,omitempty"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	TeamID          *primitive.ObjectID `json:"team_id"`
}

// ServeUserInfo answers 200 either way; signed-out callers get
// isAuthenticated false and empty fields.
//
// Response format:
//
//	{ "isAuthenticated": bool, "user_id": "...", "name": "...", "email": "...", "team_id": "..." | null }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.WriteJSON(w, http.StatusOK, userInfo{})
		return
	}

	out := userInfo{
		IsAuthenticated: true,
		UserID:          &user.UserID,
		Name:            user.Name,
		Email:           user.Email,
	}
	if sess := shared.Session(r); sess.HasTeam() {
		id := sess.TeamID
		out.TeamID = &id
	}
	jsonutil.WriteJSON(w, http.StatusOK, out)
}
