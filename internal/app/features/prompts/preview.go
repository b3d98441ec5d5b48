// internal/app/features/prompts/preview.go
package prompts

import (
	"io"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/markdown"
)

// ServePreview renders the stored body as sanitized HTML.
func (h *Handler) ServePreview(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.Prompts.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, markdown.RenderSafe(p.BodyMD))
}
