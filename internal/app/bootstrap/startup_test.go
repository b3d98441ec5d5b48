package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:       "mongodb://localhost:27017",
		SessionKey:     strings.Repeat("k", MinSessionKeyLen),
		SlugLength:     10,
		ImportMaxBytes: 1 << 20,
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", "prod", func(*AppConfig) {}, ""},
		{"short key in prod", "prod", func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"short key in dev", "dev", func(c *AppConfig) { c.SessionKey = "short" }, ""},
		{"short slug", "dev", func(c *AppConfig) { c.SlugLength = 7 }, "slug_length"},
		{"minimum slug", "prod", func(c *AppConfig) { c.SlugLength = MinSlugLength }, ""},
		{"negative import cap", "dev", func(c *AppConfig) { c.ImportMaxBytes = -1 }, "import_max_bytes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := validateApp(tc.env, cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestBuildRouter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := validConfig()
	cfg.MetricsEnabled = true
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	s := newServices(db, cfg, logger)
	t.Cleanup(func() { s.close(logger) })

	sm, err := auth.NewSessionManager(cfg.SessionKey, "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatal(err)
	}
	router := buildRouter(cfg, deps, s, sm, logger)

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/", http.StatusSeeOther},
		{"GET", "/signin", http.StatusOK},
		{"GET", "/api/user", http.StatusOK},
		{"GET", "/app", http.StatusUnauthorized},
		{"GET", "/app/p/0123456789abcdef01234567", http.StatusUnauthorized},
		{"GET", "/app/folders", http.StatusUnauthorized},
		{"GET", "/app/tags", http.StatusUnauthorized},
		{"GET", "/app/settings/teams", http.StatusUnauthorized},
		{"GET", "/p/no-such-slug", http.StatusNotFound},
		{"GET", "/metrics", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			testutil.AssertStatus(t, rec, tc.want)
		})
	}
}

func TestReleaser_RunsOnceInReverse(t *testing.T) {
	r := NewReleaser()
	var order []string
	r.Add(func(*zap.Logger) { order = append(order, "first") })
	r.Add(func(*zap.Logger) { order = append(order, "second") })

	r.Release(zap.NewNop())
	r.Release(zap.NewNop())

	if strings.Join(order, ",") != "second,first" {
		t.Errorf("order = %v, want second,first once", order)
	}
}

func TestBuildHandler_RendersPagesAndRegistersRelease(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Releaser: NewReleaser()}
	t.Cleanup(func() { deps.Releaser.Release(logger) })

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	req := httptest.NewRequest("GET", "/p/no-such-slug", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if body := rec.Body.String(); !strings.Contains(body, "Prompt not found") || !strings.Contains(body, "· PromptStash</title>") {
		t.Errorf("not-found page should render through the layout:\n%s", body)
	}

	deps.Releaser.mu.Lock()
	n := len(deps.Releaser.fns)
	deps.Releaser.mu.Unlock()
	if n != 1 {
		t.Errorf("registered %d release funcs, want 1", n)
	}
}
