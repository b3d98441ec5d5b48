// internal/app/features/settings/handler.go
package settings

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/services/organize"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserDirectory resolves members for display and invitations by email.
type UserDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// Handler owns team settings: teams, the current team and memberships.
type Handler struct {
	Org        *organize.Service
	Users      UserDirectory
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(org *organize.Service, users UserDirectory, sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Org:        org,
		Users:      users,
		SessionMgr: sm,
		Log:        logger,
	}
}
