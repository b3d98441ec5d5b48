// internal/app/features/settings/teams.go
package settings

import (
	"context"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type teamsResponse struct {
	CurrentTeamID *primitive.ObjectID `json:"current_team_id"`
	Teams         []models.Team       `json:"teams"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type currentTeamRequest struct {
	TeamID string `json:"team_id"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/settings/teams                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	teams, err := h.Org.ListTeams(ctx)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}

	out := teamsResponse{Teams: teams}
	if sess := shared.Session(r); sess.HasTeam() {
		id := sess.TeamID
		out.CurrentTeamID = &id
	}
	jsonutil.WriteJSON(w, http.StatusOK, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/settings/teams                                                     |
| The new team becomes the current team.                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Org.CreateTeam(ctx, req.Name)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if err := h.SessionMgr.SetCurrentTeam(w, r, t.ID); err != nil {
		h.Log.Warn("create team: remember current team", zap.Error(err))
	}
	jsonutil.WriteJSON(w, http.StatusCreated, t)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /app/settings/teams/{teamID}                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRenameTeam(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "teamID", "team")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req nameRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Org.RenameTeam(ctx, id, req.Name)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, t)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /app/settings/teams/{teamID}                                          |
| Removes the team with its folders, tags and prompts.                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "teamID", "team")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Org.DeleteTeam(ctx, id); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("team deleted", zap.String("team_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/settings/current-team                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCurrentTeam(w http.ResponseWriter, r *http.Request) {
	var req currentTeamRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	id, err := primitive.ObjectIDFromHex(req.TeamID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, apperr.Validation("invalid team id %q", req.TeamID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Org.GetTeam(ctx, id)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if err := h.SessionMgr.SetCurrentTeam(w, r, t.ID); err != nil {
		jsonutil.WriteError(w, h.Log, apperr.Store(err))
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, t)
}
