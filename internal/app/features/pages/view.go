// internal/app/features/pages/view.go
package pages

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/markdown"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// publicPrompt is what anonymous readers see. Owner, team and folder stay
// private.
type publicPrompt struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	BodyMD    string    `json:"body_md"`
	BodyHTML  string    `json:"body_html"`
	UpdatedAt time.Time `json:"updated_at"`
}

type publicPromptVM struct {
	Title     string
	BodyMD    string
	Body      template.HTML
	UpdatedAt time.Time
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /p/{slug}                                                                |
| Missing, unpublished and never-existing slugs all answer the same 404.       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	asJSON := wantsJSON(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Prompts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.notFound(w, r, asJSON)
			return
		}
		h.Log.Error("load public prompt", zap.Error(err), zap.String("slug", slug))
		if asJSON {
			jsonutil.WriteError(w, h.Log, err)
		} else {
			http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		}
		return
	}

	// RenderSafe output has been through the sanitizer.
	body := markdown.RenderSafe(p.BodyMD)
	w.Header().Set("Cache-Control", "no-store")

	if asJSON {
		jsonutil.WriteJSON(w, http.StatusOK, publicPrompt{
			Slug:      slug,
			Title:     p.Title,
			BodyMD:    p.BodyMD,
			BodyHTML:  body,
			UpdatedAt: p.UpdatedAt,
		})
		return
	}

	render(w, r, http.StatusOK, "public_prompt", publicPromptVM{
		Title:     p.Title,
		BodyMD:    p.BodyMD,
		Body:      template.HTML(body),
		UpdatedAt: p.UpdatedAt,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, asJSON bool) {
	if asJSON {
		jsonutil.WriteError(w, h.Log, apperr.NotFound("prompt"))
		return
	}
	render(w, r, http.StatusNotFound, "not_found", notFoundVM{Title: "Not found"})
}

type notFoundVM struct {
	Title string
}

func render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, name, data)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
