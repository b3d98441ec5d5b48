// internal/app/features/pages/handler.go
package pages

import (
	"context"

	// Registers the public page templates with the engine.
	_ "github.com/dalemusser/promptstash/internal/app/features/pages/views"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.uber.org/zap"
)

// SlugReader resolves public slugs. lifecycle.Manager satisfies it.
type SlugReader interface {
	GetBySlug(ctx context.Context, slug string) (models.Prompt, error)
}

// Handler serves public prompt pages. HTML goes through the template
// engine installed at startup.
type Handler struct {
	Prompts SlugReader
	Log     *zap.Logger
}

func NewHandler(prompts SlugReader, logger *zap.Logger) *Handler {
	return &Handler{Prompts: prompts, Log: logger}
}
