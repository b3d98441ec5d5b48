// internal/app/features/home/handler.go
package home

import (
	"net/http"

	"go.uber.org/zap"
)

// AppPath is the workspace every visitor is sent to.
const AppPath = "/app"

// Handler serves the site root.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – redirect into the app; /app sends anonymous users on to /signin     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, AppPath, http.StatusSeeOther)
}
