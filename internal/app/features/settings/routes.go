// internal/app/features/settings/routes.go
package settings

import (
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /app/settings. All routes require a signed-in user;
// role checks happen in the organize service.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/current-team", h.HandleCurrentTeam)

	r.Get("/teams", h.ServeTeams)
	r.Post("/teams", h.HandleCreateTeam)
	r.Route("/teams/{teamID}", func(r chi.Router) {
		r.Patch("/", h.HandleRenameTeam)
		r.Delete("/", h.HandleDeleteTeam)

		r.Get("/members", h.ServeMembers)
		r.Post("/members", h.HandleAddMember)
		r.Patch("/members/{userID}", h.HandleChangeRole)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
	})
	return r
}
