// Package apptest wires the services over an in-memory store for handler
// tests.
package apptest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/services/organize"
	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/app/workbench"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"github.com/dalemusser/promptstash/internal/testutil/memstore"
	"go.uber.org/zap"
)

// SessionKey is a 32-byte cookie key for tests.
const SessionKey = "0123456789abcdef0123456789abcdef"

// Env is a signed-in owner with one team, "Eng".
type Env struct {
	T        *testing.T
	DB       *memstore.DB
	Prompts  *lifecycle.Manager
	Org      *organize.Service
	Sessions *auth.SessionManager
	Log      *zap.Logger
	Owner    models.User
	Team     models.Team
}

func New(t *testing.T, policy lifecycle.Policy, opts ...lifecycle.Option) *Env {
	t.Helper()
	db := memstore.New()
	logger := zap.NewNop()

	prompts := lifecycle.New(lifecycle.Stores{
		Prompts:     db.Prompts(),
		Folders:     db.Folders(),
		Tags:        db.Tags(),
		Versions:    db.Versions(),
		Shares:      db.Shares(),
		Users:       db.Users(),
		Memberships: db.Memberships(),
	}, policy, logger, opts...)
	org := organize.New(organize.Stores{
		Teams:       db.Teams(),
		Memberships: db.Memberships(),
		Folders:     db.Folders(),
		Tags:        db.Tags(),
		Prompts:     db.Prompts(),
		Shares:      db.Shares(),
		Users:       db.Users(),
	}, logger, nil)

	sm, err := auth.NewSessionManager(SessionKey, "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	e := &Env{T: t, DB: db, Prompts: prompts, Org: org, Sessions: sm, Log: logger}
	e.Owner = e.User("owner@example.com")
	team, err := org.CreateTeam(e.Ctx(e.Owner), "Eng")
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	e.Team = team
	return e
}

// User creates a password user named after email.
func (e *Env) User(email string) models.User {
	e.T.Helper()
	u, err := e.DB.Users().Create(context.Background(), email, email, "", models.AuthPassword)
	if err != nil {
		e.T.Fatalf("create user: %v", err)
	}
	return u
}

// Member creates a user and adds them to the team.
func (e *Env) Member(email, role string) models.User {
	e.T.Helper()
	u := e.User(email)
	if _, err := e.DB.Memberships().Add(context.Background(), e.Team.ID, u.ID, role); err != nil {
		e.T.Fatalf("add member: %v", err)
	}
	return u
}

func Identity(u models.User) identity.Identity {
	return identity.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
}

// Ctx is a context signed in as u.
func (e *Env) Ctx(u models.User) context.Context {
	return identity.With(context.Background(), Identity(u))
}

// Prompt creates a prompt owned by the team owner.
func (e *Env) Prompt(title, visibility string) models.Prompt {
	e.T.Helper()
	p, err := e.Prompts.Create(e.Ctx(e.Owner), lifecycle.CreateInput{
		TeamID: e.Team.ID, Title: title, BodyMD: "# " + title, Visibility: visibility,
	})
	if err != nil {
		e.T.Fatalf("create prompt: %v", err)
	}
	return p
}

// Request is a JSON request from u with the team selected.
func (e *Env) Request(method, target string, body any, u models.User) *http.Request {
	e.T.Helper()
	req := testutil.JSONRequest(e.T, method, target, body)
	req = testutil.WithUser(req, Identity(u))
	sess := workbench.Session{UserID: u.ID}.WithTeam(e.Team.ID)
	return req.WithContext(workbench.WithSession(req.Context(), sess))
}

// Anonymous is a JSON request with no user.
func (e *Env) Anonymous(method, target string, body any) *http.Request {
	e.T.Helper()
	return testutil.JSONRequest(e.T, method, target, body)
}
