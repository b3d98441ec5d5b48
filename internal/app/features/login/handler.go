// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/auditlog"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/authutil"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/ratelimit"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultReturn is where a signed-in user lands without a ?return=.
const DefaultReturn = "/app"

// UserStore is the user persistence sign-in needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, email, name, passwordHash, authMethod string) (models.User, error)
}

type Handler struct {
	Users         UserStore
	SessionMgr    *auth.SessionManager
	Audit         *auditlog.Logger
	Limiter       *ratelimit.SignInLimiter
	GoogleEnabled bool
	Log           *zap.Logger
}

func NewHandler(users UserStore, sessionMgr *auth.SessionManager, audit *auditlog.Logger,
	limiter *ratelimit.SignInLimiter, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Users:         users,
		SessionMgr:    sessionMgr,
		Audit:         audit,
		Limiter:       limiter,
		GoogleEnabled: googleEnabled,
		Log:           logger,
	}
}

type methodsResponse struct {
	Methods     []string `json:"methods"`
	Register    bool     `json:"register"`
	Return      string   `json:"return"`
	GoogleURL   string   `json:"google_url,omitempty"`
	PasswordMsg string   `json:"password_rules"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Return   string `json:"return"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Return   string `json:"return"`
}

type signedInResponse struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// errBadCredentials covers both unknown email and wrong password so the
// response does not reveal which accounts exist.
var errBadCredentials = &apperr.Error{Kind: apperr.ErrUnauthenticated, Msg: "invalid email or password"}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /signin                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := authutil.SafeReturn(r.URL.Query().Get("return"), DefaultReturn)
	resp := methodsResponse{
		Methods:     []string{models.AuthPassword},
		Register:    true,
		Return:      ret,
		PasswordMsg: authutil.PasswordRules(),
	}
	if h.GoogleEnabled {
		resp.Methods = append(resp.Methods, models.AuthGoogle)
		resp.GoogleURL = "/auth/google?return=" + url.QueryEscape(ret)
	}
	jsonutil.WriteJSON(w, http.StatusOK, resp)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signin                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		jsonutil.WriteError(w, h.Log, apperr.Validation("email and password are required"))
		return
	}
	if !h.allow(w, r, email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.Audit.SignInFailed(ctx, r, email, "user_not_found")
		jsonutil.WriteError(w, h.Log, errBadCredentials)
		return
	case err != nil:
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	if u.AuthMethod == models.AuthGoogle && u.PasswordHash == "" {
		h.Audit.SignInFailed(ctx, r, email, "google_account")
		jsonutil.WriteError(w, h.Log, &apperr.Error{
			Kind: apperr.ErrUnauthenticated,
			Msg:  "this account signs in with Google",
		})
		return
	}
	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		h.Audit.SignInFailed(ctx, r, email, "wrong_password")
		jsonutil.WriteError(w, h.Log, errBadCredentials)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.finish(w, r, u, models.AuthPassword, req.Return, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signin/register                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	reg, err := authutil.ValidateRegistration(authutil.Registration{
		Email: req.Email, Name: req.Name, Password: req.Password,
	})
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if !h.allow(w, r, reg.Email) {
		return
	}

	hash, err := authutil.HashPassword(reg.Password)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		jsonutil.WriteError(w, h.Log, apperr.Store(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, reg.Email, reg.Name, hash, models.AuthPassword)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	h.Audit.UserRegistered(ctx, r, u.ID, models.AuthPassword)
	h.finish(w, r, u, models.AuthPassword, req.Return, http.StatusCreated)
}

func (h *Handler) allow(w http.ResponseWriter, r *http.Request, email string) bool {
	if h.Limiter == nil {
		return true
	}
	ok, reason := h.Limiter.Check(r, email)
	if !ok {
		h.Log.Warn("sign-in rate limited",
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.String("email", email))
		jsonutil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
			"error":   "rate limited",
			"message": reason,
		})
	}
	return ok
}

// finish writes the session cookie and answers with the user and where to
// go next.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, u models.User, method, ret string, status int) {
	id := identity.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
	if err := h.SessionMgr.SignIn(w, r, id); err != nil {
		h.Log.Error("sign-in: save session", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		jsonutil.WriteError(w, h.Log, apperr.Store(err))
		return
	}
	h.Audit.SignIn(r.Context(), r, u.ID, method)
	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("auth_method", method))

	jsonutil.WriteJSON(w, status, signedInResponse{
		User:     u,
		Redirect: authutil.SafeReturn(ret, DefaultReturn),
	})
}
