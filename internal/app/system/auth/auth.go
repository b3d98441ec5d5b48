// Package auth manages the sign-in cookie session.
//
// A SessionManager wraps a gorilla CookieStore. LoadSessionUser copies the
// signed-in user from the cookie into the request context as an
// identity.Identity, which is what services check before mutating anything.
// The session also remembers the user's current team.
package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	isAuthKey     = "is_authenticated"
	userIDKey     = "user_id"
	userNameKey   = "user_name"
	userEmailKey  = "user_email"
	currentTeamID = "current_team_id"
	oauthStateKey = "oauth_state"
)

// SignInPath is where unauthenticated browsers are sent.
const SignInPath = "/signin"

// SessionManager owns the cookie store and the session name.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure with SameSite=None. In local
// dev over http://localhost use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "promptstash-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the session for r. A cookie that fails to decode yields
// a fresh session together with the decode error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn records id in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, id identity.Identity) error {
	sess, _ := sm.GetSession(r)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = id.UserID.Hex()
	sess.Values[userNameKey] = id.Name
	sess.Values[userEmailKey] = id.Email
	return sess.Save(r, w)
}

// SignOut clears the session and expires the cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.GetSession(r)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// CurrentTeam returns the team remembered in the session, if any.
func (sm *SessionManager) CurrentTeam(r *http.Request) (primitive.ObjectID, bool) {
	sess, _ := sm.GetSession(r)
	oid, err := primitive.ObjectIDFromHex(getString(sess, currentTeamID))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// SetCurrentTeam remembers teamID as the user's current team.
func (sm *SessionManager) SetCurrentTeam(w http.ResponseWriter, r *http.Request, teamID primitive.ObjectID) error {
	sess, _ := sm.GetSession(r)
	sess.Values[currentTeamID] = teamID.Hex()
	return sess.Save(r, w)
}

// SetOAuthState stores the state value of an OAuth round trip.
func (sm *SessionManager) SetOAuthState(w http.ResponseWriter, r *http.Request, state string) error {
	sess, _ := sm.GetSession(r)
	sess.Values[oauthStateKey] = state
	return sess.Save(r, w)
}

// TakeOAuthState returns the stored OAuth state and removes it, so a state
// can be redeemed once.
func (sm *SessionManager) TakeOAuthState(w http.ResponseWriter, r *http.Request) string {
	sess, _ := sm.GetSession(r)
	state := getString(sess, oauthStateKey)
	if state == "" {
		return ""
	}
	delete(sess.Values, oauthStateKey)
	if err := sess.Save(r, w); err != nil {
		sm.logger.Warn("clear oauth state", zap.Error(err))
	}
	return state
}

// LoadSessionUser injects the signed-in user into the request context.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil {
			sm.logger.Debug("session decode failed", zap.Error(err))
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			uid, err := primitive.ObjectIDFromHex(getString(sess, userIDKey))
			if err == nil {
				r = r.WithContext(identity.With(r.Context(), identity.Identity{
					UserID: uid,
					Name:   getString(sess, userNameKey),
					Email:  getString(sess, userEmailKey),
				}))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /signin?return=...
//   - HTML: 303 redirect to /signin?return=...
//   - API:  401 with a JSON error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(r.URL.RequestURI())

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", SignInPath+"?return="+ret)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, SignInPath+"?return="+ret, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthenticated","message":"not authenticated"}`))
	})
}

// CurrentUser returns the signed-in caller for r.
func CurrentUser(r *http.Request) (identity.Identity, bool) {
	return identity.FromContext(r.Context())
}

// WithTestUser returns r carrying id, bypassing the cookie. For tests.
func WithTestUser(r *http.Request, id identity.Identity) *http.Request {
	return r.WithContext(identity.With(r.Context(), id))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
