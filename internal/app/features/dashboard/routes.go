// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /app. Every route requires a signed-in user and a
// resolved workbench session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
		pr.Post("/bulk-delete", h.HandleBulkDelete)
		pr.Get("/export", h.ServeExport)
		pr.Post("/import", h.HandleImport)
	})

	return r
}
