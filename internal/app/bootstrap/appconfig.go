// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings such as ports, TLS, log level and CORS;
// everything PromptStash needs beyond that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: promptstash-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Base URL used to build the Google OAuth callback
	BaseURL string // e.g., "https://promptstash.example.com" or "http://localhost:8080"

	// Google OAuth (sign-in with Google is disabled when either is blank)
	GoogleClientID     string
	GoogleClientSecret string

	// Prompt lifecycle
	SlugLength             int   // length of public share slugs
	AutosaveCreatesVersion bool  // autosaves append a version like manual saves
	ImportMaxBytes         int64 // cap on an uploaded export file

	// Audit log file (blank path means audit events go to the main logger only)
	AuditLogPath       string
	AuditLogMaxSizeMB  int
	AuditLogMaxBackups int
	AuditLogMaxAgeDays int

	// MetricsEnabled mounts /metrics and the request instrumentation.
	MetricsEnabled bool
}
