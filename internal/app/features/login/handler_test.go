package login_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/promptstash/internal/app/features/login"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/authutil"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/app/system/ratelimit"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"github.com/dalemusser/promptstash/internal/testutil/memstore"
	"go.uber.org/zap"
)

type harness struct {
	db     *memstore.DB
	sm     *auth.SessionManager
	router http.Handler
}

func newHarness(t *testing.T, limiter *ratelimit.SignInLimiter) *harness {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	db := memstore.New()
	h := login.NewHandler(db.Users(), sm, nil, limiter, true, logger)
	return &harness{db: db, sm: sm, router: login.Routes(h)}
}

func (hs *harness) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, testutil.JSONRequest(t, "POST", path, body))
	return rec
}

// signedInAs replays the response cookie through LoadSessionUser.
func (hs *harness) signedInAs(rec *httptest.ResponseRecorder) (identity.Identity, bool) {
	req := httptest.NewRequest("GET", "/app", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	var got identity.Identity
	var ok bool
	hs.sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func (hs *harness) passwordUser(t *testing.T, email, password string) models.User {
	t.Helper()
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u, err := hs.db.Users().Create(t.Context(), email, "Ada", hash, models.AuthPassword)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestServeLogin_ListsMethods(t *testing.T) {
	hs := newHarness(t, nil)

	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, httptest.NewRequest("GET", "/?return=//evil.example", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var body struct {
		Methods []string `json:"methods"`
		Return  string   `json:"return"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Methods) != 2 || body.Methods[0] != "password" || body.Methods[1] != "google" {
		t.Errorf("methods = %v", body.Methods)
	}
	if body.Return != "/app" {
		t.Errorf("return = %q, want off-site return replaced by /app", body.Return)
	}
}

func TestHandleLoginPost_Success(t *testing.T) {
	hs := newHarness(t, nil)
	u := hs.passwordUser(t, "ada@example.com", "analytical1")

	rec := hs.post(t, "/", map[string]string{"email": "ADA@example.com", "password": "analytical1", "return": "/app/p/1"})
	testutil.AssertStatus(t, rec, http.StatusOK)

	var body struct {
		Redirect string `json:"redirect"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Redirect != "/app/p/1" {
		t.Errorf("redirect = %q", body.Redirect)
	}
	who, ok := hs.signedInAs(rec)
	if !ok || who.UserID != u.ID {
		t.Errorf("session user = %+v, %v", who, ok)
	}
}

func TestHandleLoginPost_BadCredentialsLookAlike(t *testing.T) {
	hs := newHarness(t, nil)
	hs.passwordUser(t, "ada@example.com", "analytical1")

	wrong := hs.post(t, "/", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	unknown := hs.post(t, "/", map[string]string{"email": "bob@example.com", "password": "nope-nope"})

	testutil.AssertStatus(t, wrong, http.StatusUnauthorized)
	testutil.AssertStatus(t, unknown, http.StatusUnauthorized)
	if wrong.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ:\n%s\n%s", wrong.Body.String(), unknown.Body.String())
	}
	if _, ok := hs.signedInAs(wrong); ok {
		t.Error("failed sign-in must not create a session")
	}
}

func TestHandleLoginPost_MissingFields(t *testing.T) {
	hs := newHarness(t, nil)
	rec := hs.post(t, "/", map[string]string{"email": "ada@example.com"})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestHandleLoginPost_GoogleAccount(t *testing.T) {
	hs := newHarness(t, nil)
	if _, err := hs.db.Users().UpsertGoogle(t.Context(), "g@example.com", "G"); err != nil {
		t.Fatal(err)
	}
	rec := hs.post(t, "/", map[string]string{"email": "g@example.com", "password": "whatever1"})
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	limiter := ratelimit.NewSignInLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer limiter.Close()
	hs := newHarness(t, limiter)

	for i := 0; i < 2; i++ {
		hs.post(t, "/", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	}
	rec := hs.post(t, "/", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	testutil.AssertStatus(t, rec, http.StatusTooManyRequests)
}

func TestHandleRegister(t *testing.T) {
	hs := newHarness(t, nil)

	rec := hs.post(t, "/register", map[string]string{"email": "new@example.com", "name": "New", "password": "analytical1"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var body struct {
		User models.User `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.User.Email != "new@example.com" || body.User.AuthMethod != models.AuthPassword {
		t.Errorf("user = %+v", body.User)
	}
	if _, ok := hs.signedInAs(rec); !ok {
		t.Error("registration should sign the user in")
	}

	stored, err := hs.db.Users().GetByEmail(t.Context(), "new@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !authutil.CheckPassword("analytical1", stored.PasswordHash) {
		t.Error("stored hash does not match the password")
	}

	dup := hs.post(t, "/register", map[string]string{"email": "NEW@example.com", "password": "analytical2"})
	testutil.AssertStatus(t, dup, http.StatusConflict)

	weak := hs.post(t, "/register", map[string]string{"email": "weak@example.com", "password": "password"})
	testutil.AssertStatus(t, weak, http.StatusUnprocessableEntity)
}
