// Package lifecycle implements the rules that govern a prompt from creation
// to deletion: title validation, the private/team/public visibility state
// machine and its public slug, folder placement, tag association, version
// snapshots, explicit shares, and JSON export/import.
//
// Every mutating operation reads the caller from the context and fails with
// apperr.ErrUnauthenticated when there is none. Access decisions come from
// teampolicy; a denied check is reported as NotFound.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/promptstash/internal/app/policy/teampolicy"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/auditlog"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/app/system/metrics"
	"github.com/dalemusser/promptstash/internal/app/system/slug"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrSyncFailed marks a tag sync that failed and was rolled back. The
// returned error also wraps the store error that caused it.
var ErrSyncFailed = errors.New("tag sync failed")

// ListFilter narrows List results.
type ListFilter = promptstore.ListFilter

// PromptStore is the prompt persistence the manager needs.
type PromptStore interface {
	List(ctx context.Context, teamID primitive.ObjectID, f promptstore.ListFilter) ([]models.Prompt, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Prompt, error)
	GetBySlug(ctx context.Context, slug string) (models.Prompt, error)
	Create(ctx context.Context, p models.Prompt) (models.Prompt, error)
	Update(ctx context.Context, id primitive.ObjectID, patch promptstore.Patch) (models.Prompt, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FolderReader resolves folders for placement checks.
type FolderReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Folder, error)
}

// TagStore covers tag lookup and the prompt_tags join.
type TagStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Tag, error)
	Attach(ctx context.Context, promptID, tagID primitive.ObjectID) error
	Detach(ctx context.Context, promptID, tagID primitive.ObjectID) error
	ListForPrompt(ctx context.Context, promptID primitive.ObjectID) ([]models.Tag, error)
}

type VersionStore interface {
	List(ctx context.Context, promptID primitive.ObjectID) ([]models.PromptVersion, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.PromptVersion, error)
	Create(ctx context.Context, v models.PromptVersion) (models.PromptVersion, error)
}

type ShareStore interface {
	teampolicy.ShareReader
	List(ctx context.Context, promptID primitive.ObjectID) ([]models.Share, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Share, error)
	Create(ctx context.Context, promptID, target primitive.ObjectID, permission string) (models.Share, error)
	UpdatePermission(ctx context.Context, id primitive.ObjectID, permission string) (models.Share, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Stores groups the manager's persistence dependencies.
type Stores struct {
	Prompts     PromptStore
	Folders     FolderReader
	Tags        TagStore
	Versions    VersionStore
	Shares      ShareStore
	Users       UserReader
	Memberships teampolicy.MembershipReader
}

// Policy holds the configurable lifecycle rules.
type Policy struct {
	// AutosaveCreatesVersion makes autosaves append a version snapshot the
	// way manual saves always do.
	AutosaveCreatesVersion bool
	// SlugLength is the length of generated public slugs.
	SlugLength int
}

// Manager applies the lifecycle rules on top of the stores.
type Manager struct {
	st      Stores
	access  *teampolicy.Policy
	policy  Policy
	newSlug slug.Generator
	now     func() time.Time
	log     *zap.Logger
	audit   *auditlog.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithSlugGenerator replaces the random slug source.
func WithSlugGenerator(g slug.Generator) Option {
	return func(m *Manager) { m.newSlug = g }
}

// WithClock replaces time.Now for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithAudit sends lifecycle events to the audit log.
func WithAudit(a *auditlog.Logger) Option {
	return func(m *Manager) { m.audit = a }
}

func New(st Stores, policy Policy, logger *zap.Logger, opts ...Option) *Manager {
	if policy.SlugLength <= 0 {
		policy.SlugLength = slug.DefaultLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		st:      st,
		access:  teampolicy.New(st.Memberships, st.Shares),
		policy:  policy,
		newSlug: slug.NewGenerator(policy.SlugLength),
		now:     time.Now,
		log:     logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Policy returns the rules the manager was built with.
func (m *Manager) Policy() Policy { return m.policy }

func caller(ctx context.Context) (identity.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return identity.Identity{}, apperr.Unauthenticated()
	}
	return id, nil
}

// load fetches a prompt the caller may act on. allowed picks the access
// level the operation needs.
func (m *Manager) load(ctx context.Context, id primitive.ObjectID, allowed func(teampolicy.Access) bool) (models.Prompt, identity.Identity, error) {
	who, err := caller(ctx)
	if err != nil {
		return models.Prompt{}, who, err
	}
	p, err := m.st.Prompts.GetByID(ctx, id)
	if err != nil {
		return models.Prompt{}, who, err
	}
	a, err := m.access.PromptAccess(ctx, p, who.UserID)
	if err != nil {
		return models.Prompt{}, who, err
	}
	if !allowed(a) {
		return models.Prompt{}, who, apperr.NotFound("prompt")
	}
	return p, who, nil
}

func canView(a teampolicy.Access) bool   { return a.View }
func canEdit(a teampolicy.Access) bool   { return a.Edit }
func canManage(a teampolicy.Access) bool { return a.Manage }

// requireTeam checks the caller's team role with check.
func (m *Manager) requireTeam(ctx context.Context, teamID primitive.ObjectID,
	check func(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error)) (identity.Identity, error) {
	who, err := caller(ctx)
	if err != nil {
		return who, err
	}
	ok, err := check(ctx, teamID, who.UserID)
	if err != nil {
		return who, err
	}
	if !ok {
		return who, apperr.NotFound("team")
	}
	return who, nil
}

// ValidateTitle trims title and enforces the required and length rules.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > models.TitleMaxLen {
		return "", apperr.Validation("title must be at most %d characters", models.TitleMaxLen)
	}
	return title, nil
}

// folderInTeam checks that folderID exists and belongs to teamID.
func (m *Manager) folderInTeam(ctx context.Context, teamID, folderID primitive.ObjectID) error {
	f, err := m.st.Folders.GetByID(ctx, folderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation("folder does not exist")
	}
	if err != nil {
		return err
	}
	if f.TeamID != teamID {
		return apperr.Validation("folder belongs to a different team")
	}
	return nil
}

// observe records the outcome of op in the lifecycle counters.
func observe(op string, err error) {
	metrics.RecordPromptOp(op, outcome(err))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.ErrUnauthenticated:
		return "unauthenticated"
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrConflict:
		return "conflict"
	case apperr.ErrValidation:
		return "validation"
	}
	return "store"
}
