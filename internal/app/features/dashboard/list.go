// internal/app/features/dashboard/list.go
package dashboard

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	TeamID   primitive.ObjectID  `json:"team_id"`
	FolderID *primitive.ObjectID `json:"folder_id"`
	TagID    *primitive.ObjectID `json:"tag_id"`
	Query    string              `json:"q"`
	Count    int                 `json:"count"`
	Prompts  []models.Prompt     `json:"prompts"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app?team=&folder=&tag=&q=                                               |
| Team, folder and tag come from the resolved session.                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.Session(r)
	teamID, err := shared.Team(sess)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prompts, err := h.Prompts.List(ctx, teamID, lifecycle.ListFilter{
		FolderID: sess.FolderID,
		TagID:    sess.TagID,
		Search:   q,
	})
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}

	jsonutil.WriteJSON(w, http.StatusOK, listResponse{
		TeamID:   teamID,
		FolderID: sess.FolderID,
		TagID:    sess.TagID,
		Query:    q,
		Count:    len(prompts),
		Prompts:  prompts,
	})
}
