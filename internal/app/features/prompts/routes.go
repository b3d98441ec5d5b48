// internal/app/features/prompts/routes.go
package prompts

import (
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /app/p. All routes require a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleCreate)

	r.Route("/{promptID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Patch("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)

		r.Post("/save", h.HandleSave)
		r.Post("/autosave", h.HandleAutosave)

		r.Post("/publish", h.HandlePublish)
		r.Post("/unpublish", h.HandleUnpublish)
		r.Put("/visibility", h.HandleVisibility)
		r.Put("/folder", h.HandleFolder)
		r.Put("/tags", h.HandleTags)

		r.Get("/versions", h.ServeVersions)
		r.Post("/versions", h.HandleCreateVersion)
		r.Post("/versions/{versionID}/restore", h.HandleRestore)

		r.Get("/shares", h.ServeShares)
		r.Post("/shares", h.HandleShare)
		r.Patch("/shares/{shareID}", h.HandleUpdateShare)
		r.Delete("/shares/{shareID}", h.HandleRevokeShare)

		r.Get("/preview", h.ServePreview)
	})
	return r
}
