package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	})
}

// carryCookies copies Set-Cookie headers from rec onto req.
func carryCookies(rec *httptest.ResponseRecorder, req *http.Request) {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_RedirectsToSignin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/app", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/signin?return=") {
		t.Errorf("expected redirect to /signin, got %q", loc)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/app", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"unauthenticated"`) {
		t.Errorf("expected JSON error body, got %q", rec.Body.String())
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/app", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if hx := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(hx, "/signin") {
		t.Errorf("expected HX-Redirect to /signin, got %q", hx)
	}
}

func TestRequireSignedIn_WithUser_Passes(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(okHandler())

	req := httptest.NewRequest("GET", "/app", nil)
	req = auth.WithTestUser(req, identity.Identity{UserID: primitive.NewObjectID(), Name: "Ada"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestSignIn_RoundTripThroughCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	want := identity.Identity{UserID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com"}

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/signin", nil), want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := httptest.NewRequest("GET", "/app", nil)
	carryCookies(rec, req)

	var got identity.Identity
	var found bool
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("expected user loaded from session")
	}
	if got != want {
		t.Errorf("identity: got %+v, want %+v", got, want)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	var found bool
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if found {
		t.Error("expected no user without a session cookie")
	}
}

func TestCurrentTeam_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	teamID := primitive.NewObjectID()

	if _, ok := sm.CurrentTeam(httptest.NewRequest("GET", "/", nil)); ok {
		t.Fatal("expected no current team on a fresh session")
	}

	rec := httptest.NewRecorder()
	if err := sm.SetCurrentTeam(rec, httptest.NewRequest("POST", "/", nil), teamID); err != nil {
		t.Fatalf("SetCurrentTeam: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	carryCookies(rec, req)
	got, ok := sm.CurrentTeam(req)
	if !ok || got != teamID {
		t.Errorf("CurrentTeam: got %v,%v want %v,true", got, ok, teamID)
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("GET", "/signout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a cookie to be written")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("expected expired cookie, got MaxAge %d", cookies[0].MaxAge)
	}
}

func TestOAuthState_RedeemedOnce(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SetOAuthState(rec, httptest.NewRequest("GET", "/auth/google", nil), "abc123"); err != nil {
		t.Fatalf("SetOAuthState: %v", err)
	}

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	carryCookies(rec, req)
	rec2 := httptest.NewRecorder()
	if got := sm.TakeOAuthState(rec2, req); got != "abc123" {
		t.Fatalf("TakeOAuthState: got %q", got)
	}

	again := httptest.NewRequest("GET", "/auth/google/callback", nil)
	carryCookies(rec2, again)
	if got := sm.TakeOAuthState(httptest.NewRecorder(), again); got != "" {
		t.Errorf("state redeemed twice: %q", got)
	}
}
