// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/promptstash/internal/app/features/dashboard"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	// MinSessionKeyLen is the shortest session key accepted outside dev.
	MinSessionKeyLen = 32
	// MinSlugLength keeps public slugs hard to guess.
	MinSlugLength = 8
)

// appConfigKeys defines the configuration keys for PromptStash.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PROMPTSTASH_MONGO_URI, PROMPTSTASH_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "promptstash", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "promptstash-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL, used for the Google OAuth callback"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Prompt lifecycle
	{Name: "slug_length", Default: 10, Desc: "Length of public share slugs (minimum 8)"},
	{Name: "autosave_creates_version", Default: false, Desc: "Append a version on every autosave, not only on manual saves"},
	{Name: "import_max_bytes", Default: dashboard.DefaultImportMaxBytes, Desc: "Maximum size of an uploaded export file"},

	// Audit logging
	{Name: "audit_log_path", Default: "", Desc: "Rotating audit log file (blank logs audit events to the main log only)"},
	{Name: "audit_log_max_size_mb", Default: 100, Desc: "Audit log size before rotation, in MB"},
	{Name: "audit_log_max_backups", Default: 10, Desc: "Rotated audit log files to keep"},
	{Name: "audit_log_max_age_days", Default: 30, Desc: "Days to keep rotated audit log files"},

	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, with precedence
// flags > env > files > defaults, the .env file, config.yaml/json/toml,
// WAFFLE_* core variables and PROMPTSTASH_* app variables.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PROMPTSTASH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL: appValues.String("base_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		SlugLength:             appValues.Int("slug_length"),
		AutosaveCreatesVersion: appValues.Bool("autosave_creates_version"),
		ImportMaxBytes:         int64(appValues.Int("import_max_bytes")),

		AuditLogPath:       appValues.String("audit_log_path"),
		AuditLogMaxSizeMB:  appValues.Int("audit_log_max_size_mb"),
		AuditLogMaxBackups: appValues.Int("audit_log_max_backups"),
		AuditLogMaxAgeDays: appValues.Int("audit_log_max_age_days"),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	if env != "dev" && len(appCfg.SessionKey) < MinSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d bytes outside dev", MinSessionKeyLen)
	}
	if appCfg.SlugLength < MinSlugLength {
		return fmt.Errorf("slug_length must be at least %d, got %d", MinSlugLength, appCfg.SlugLength)
	}
	if appCfg.ImportMaxBytes < 0 {
		return fmt.Errorf("import_max_bytes must not be negative")
	}
	return nil
}
