// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/dalemusser/promptstash/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/promptstash/internal/app/features/dashboard"
	foldersfeature "github.com/dalemusser/promptstash/internal/app/features/folders"
	healthfeature "github.com/dalemusser/promptstash/internal/app/features/health"
	homefeature "github.com/dalemusser/promptstash/internal/app/features/home"
	loginfeature "github.com/dalemusser/promptstash/internal/app/features/login"
	logoutfeature "github.com/dalemusser/promptstash/internal/app/features/logout"
	pagesfeature "github.com/dalemusser/promptstash/internal/app/features/pages"
	promptsfeature "github.com/dalemusser/promptstash/internal/app/features/prompts"
	settingsfeature "github.com/dalemusser/promptstash/internal/app/features/settings"
	"github.com/dalemusser/promptstash/internal/app/features/shared"
	tagsfeature "github.com/dalemusser/promptstash/internal/app/features/tags"
	userinfofeature "github.com/dalemusser/promptstash/internal/app/features/userinfo"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	s := newServices(deps.MongoDatabase, appCfg, logger)
	if deps.Releaser != nil {
		deps.Releaser.Add(s.close)
	}
	return buildRouter(appCfg, deps, s, sessionMgr, logger), nil
}

func buildRouter(appCfg AppConfig, deps DBDeps, s *services, sessionMgr *auth.SessionManager, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if appCfg.MetricsEnabled {
		r.Use(metrics.Instrument)
		r.Handle("/metrics", metrics.Handler())
	}

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Public prompt pages are served without touching the session.
	pagesHandler := pagesfeature.NewHandler(s.Prompts, logger)
	r.Mount("/p", pagesfeature.PublicRoutes(pagesHandler))

	r.Group(func(r chi.Router) {
		// Loads the signed-in user, then resolves team, folder and tag.
		r.Use(sessionMgr.LoadSessionUser)
		r.Use(shared.ResolveSession(sessionMgr, s.Org, logger))

		homeHandler := homefeature.NewHandler(logger)
		r.Mount("/", homefeature.Routes(homeHandler))

		// Authentication
		googleHandler := authgooglefeature.NewHandler(s.Users, sessionMgr, s.Audit,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

		loginHandler := loginfeature.NewHandler(s.Users, sessionMgr, s.Audit, s.Limiter,
			googleHandler.IsConfigured(), logger)
		r.Mount("/signin", loginfeature.Routes(loginHandler))

		userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

		logoutHandler := logoutfeature.NewHandler(sessionMgr, s.Audit, logger)
		r.Mount("/signout", logoutfeature.Routes(logoutHandler, sessionMgr))

		// Workspace API
		promptsHandler := promptsfeature.NewHandler(s.Prompts, s.Users, logger)
		dashboardHandler := dashboardfeature.NewHandler(s.Prompts, appCfg.ImportMaxBytes, logger)
		dashboardHandler.OnDeleted = promptsHandler.ForgetPrompts
		r.Mount("/app", dashboardfeature.Routes(dashboardHandler, sessionMgr))
		r.Mount("/app/p", promptsfeature.Routes(promptsHandler, sessionMgr))

		foldersHandler := foldersfeature.NewHandler(s.Org, logger)
		r.Mount("/app/folders", foldersfeature.Routes(foldersHandler, sessionMgr))

		tagsHandler := tagsfeature.NewHandler(s.Org, logger)
		r.Mount("/app/tags", tagsfeature.Routes(tagsHandler, sessionMgr))

		settingsHandler := settingsfeature.NewHandler(s.Org, s.Users, sessionMgr, logger)
		r.Mount("/app/settings", settingsfeature.Routes(settingsHandler, sessionMgr))
	})

	return r
}
