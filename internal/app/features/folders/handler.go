// internal/app/features/folders/handler.go
package folders

import (
	"github.com/dalemusser/promptstash/internal/app/services/organize"
	"go.uber.org/zap"
)

// Handler serves the team folder tree under /app/folders.
type Handler struct {
	Org *organize.Service
	Log *zap.Logger
}

func NewHandler(org *organize.Service, logger *zap.Logger) *Handler {
	return &Handler{Org: org, Log: logger}
}
