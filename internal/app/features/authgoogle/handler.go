// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/system/auditlog"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/authutil"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	signInPath    = "/signin"
	defaultReturn = "/app"
	userInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleUsers finds or creates the account for a Google identity.
type GoogleUsers interface {
	UpsertGoogle(ctx context.Context, email, name string) (models.User, error)
}

// GoogleUser is the part of Google's userinfo response sign-in uses.
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Handler handles Google OAuth sign-in.
type Handler struct {
	Users      GoogleUsers
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	Log        *zap.Logger

	OAuth *oauth2.Config

	// Exchange and FetchUser talk to Google. Tests replace them.
	Exchange  func(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser func(ctx context.Context, token *oauth2.Token) (GoogleUser, error)
}

// NewHandler creates a Google OAuth handler. An empty client id or secret
// leaves it unconfigured.
func NewHandler(users GoogleUsers, sessionMgr *auth.SessionManager, audit *auditlog.Logger,
	clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	h := &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Audit:      audit,
		Log:        logger,
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
	h.Exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return h.OAuth.Exchange(ctx, code)
	}
	h.FetchUser = fetchGoogleUser
	return h
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.OAuth.ClientID != "" && h.OAuth.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Redirects to Google's consent screen. The state and return path ride in the  |
| session cookie until the callback.                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.fail(w, r, "google_not_configured")
		return
	}

	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		h.Log.Error("failed to generate OAuth state")
		h.fail(w, r, "internal")
		return
	}
	state := base64.RawURLEncoding.EncodeToString(key)
	ret := authutil.SafeReturn(r.URL.Query().Get("return"), defaultReturn)

	if err := h.SessionMgr.SetOAuthState(w, r, state+"|"+ret); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", ret))
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		h.fail(w, r, "google_denied")
		return
	}

	saved := h.SessionMgr.TakeOAuthState(w, r)
	wantState, ret, _ := strings.Cut(saved, "|")
	if state := q.Get("state"); state == "" || wantState == "" || state != wantState {
		h.Log.Warn("invalid OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, r, "invalid_code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token, err := h.Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}
	gu, err := h.FetchUser(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}
	if gu.Email == "" || !gu.EmailVerified {
		h.Audit.SignInFailed(ctx, r, gu.Email, "google_email_unverified")
		h.fail(w, r, "email_unverified")
		return
	}

	u, err := h.Users.UpsertGoogle(ctx, gu.Email, gu.Name)
	if err != nil {
		h.Log.Error("failed to upsert Google user", zap.Error(err), zap.String("email", gu.Email))
		h.fail(w, r, "internal")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, identity.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		h.Log.Error("google sign-in: save session", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	h.Audit.SignIn(ctx, r, u.ID, models.AuthGoogle)
	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("auth_method", models.AuthGoogle))

	http.Redirect(w, r, authutil.SafeReturn(ret, defaultReturn), http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, signInPath+"?error="+url.QueryEscape(code), http.StatusSeeOther)
}

func fetchGoogleUser(ctx context.Context, token *oauth2.Token) (GoogleUser, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleUser{}, fmt.Errorf("fetch user info: unexpected status %d", resp.StatusCode)
	}
	var gu GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return GoogleUser{}, fmt.Errorf("decode user info: %w", err)
	}
	return gu, nil
}
