// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/services/organize"
	folderstore "github.com/dalemusser/promptstash/internal/app/store/folders"
	membershipstore "github.com/dalemusser/promptstash/internal/app/store/memberships"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	sharestore "github.com/dalemusser/promptstash/internal/app/store/shares"
	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	teamstore "github.com/dalemusser/promptstash/internal/app/store/teams"
	userstore "github.com/dalemusser/promptstash/internal/app/store/users"
	versionstore "github.com/dalemusser/promptstash/internal/app/store/versions"
	"github.com/dalemusser/promptstash/internal/app/system/auditlog"
	"github.com/dalemusser/promptstash/internal/app/system/ratelimit"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// services are the long-lived objects shared by the handlers. BuildHandler
// builds them and registers their release with deps.Releaser.
type services struct {
	Users   *userstore.Store
	Prompts *lifecycle.Manager
	Org     *organize.Service
	Audit   *auditlog.Logger
	Limiter *ratelimit.SignInLimiter
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
	return nil
}

func newServices(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *services {
	audit := auditlog.New(logger, auditlog.Config{
		Path:       appCfg.AuditLogPath,
		MaxSizeMB:  appCfg.AuditLogMaxSizeMB,
		MaxBackups: appCfg.AuditLogMaxBackups,
		MaxAgeDays: appCfg.AuditLogMaxAgeDays,
	})

	users := userstore.New(db)
	memberships := membershipstore.New(db)
	folders := folderstore.New(db)
	tags := tagstore.New(db)
	prompts := promptstore.New(db)
	shares := sharestore.New(db)

	manager := lifecycle.New(lifecycle.Stores{
		Prompts:     prompts,
		Folders:     folders,
		Tags:        tags,
		Versions:    versionstore.New(db),
		Shares:      shares,
		Users:       users,
		Memberships: memberships,
	}, lifecycle.Policy{
		AutosaveCreatesVersion: appCfg.AutosaveCreatesVersion,
		SlugLength:             appCfg.SlugLength,
	}, logger, lifecycle.WithAudit(audit))

	org := organize.New(organize.Stores{
		Teams:       teamstore.New(db),
		Memberships: memberships,
		Folders:     folders,
		Tags:        tags,
		Prompts:     prompts,
		Shares:      shares,
		Users:       users,
	}, logger, audit)

	return &services{
		Users:   users,
		Prompts: manager,
		Org:     org,
		Audit:   audit,
		Limiter: ratelimit.NewSignInLimiter(),
	}
}

// close releases the audit file and the limiter sweepers.
func (s *services) close(logger *zap.Logger) {
	s.Limiter.Close()
	if err := s.Audit.Close(); err != nil {
		logger.Warn("audit log close failed", zap.Error(err))
	}
}
