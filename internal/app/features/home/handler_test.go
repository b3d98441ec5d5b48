package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/features/home"
	"go.uber.org/zap"
)

func TestServeRoot_RedirectsToApp(t *testing.T) {
	router := home.Routes(home.NewHandler(zap.NewNop()))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/app" {
		t.Errorf("Location: got %q, want /app", loc)
	}
}
