// internal/app/features/pages/routes.go
package pages

import "github.com/go-chi/chi/v5"

// PublicRoutes mounts under /p. No sign-in is required.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}", h.ServePublic)
	return r
}
