// internal/app/features/folders/routes.go
package folders

import (
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /app/folders. All routes require a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/tree", h.ServeTree)

	r.Patch("/{folderID}", h.HandleRename)
	r.Delete("/{folderID}", h.HandleDelete)
	r.Put("/{folderID}/parent", h.HandleMove)
	return r
}
