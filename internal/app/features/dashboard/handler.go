// internal/app/features/dashboard/handler.go
package dashboard

import (
	"time"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultImportMaxBytes caps an uploaded export file.
const DefaultImportMaxBytes = 5 << 20

// Handler serves the team workspace: the prompt list, bulk delete, and
// export/import.
type Handler struct {
	Prompts        *lifecycle.Manager
	ImportMaxBytes int64
	Now            func() time.Time
	Log            *zap.Logger

	// OnDeleted, if set, is told which prompts a bulk delete removed.
	OnDeleted func(ids ...primitive.ObjectID)
}

func NewHandler(prompts *lifecycle.Manager, importMaxBytes int64, logger *zap.Logger) *Handler {
	if importMaxBytes <= 0 {
		importMaxBytes = DefaultImportMaxBytes
	}
	return &Handler{
		Prompts:        prompts,
		ImportMaxBytes: importMaxBytes,
		Now:            time.Now,
		Log:            logger,
	}
}
