// Package organize is the organization layer: teams and their memberships,
// the per-team folder tree and the flat per-team tag namespace.
//
// Mutations need an identity in the context. Role checks come from
// teampolicy and, like the lifecycle manager, a denied check reads as
// NotFound.
package organize

import (
	"context"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/policy/teampolicy"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/auditlog"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type TeamStore interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Team, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error)
	Create(ctx context.Context, name string, ownerID primitive.ObjectID) (models.Team, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (models.Team, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MembershipStore interface {
	teampolicy.MembershipReader
	List(ctx context.Context, teamID primitive.ObjectID) ([]models.Membership, error)
	Add(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error)
	UpdateRole(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error)
	Remove(ctx context.Context, teamID, userID primitive.ObjectID) error
}

type FolderStore interface {
	List(ctx context.Context, teamID primitive.ObjectID) ([]models.Folder, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Folder, error)
	Create(ctx context.Context, f models.Folder) (models.Folder, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (models.Folder, error)
	SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) (models.Folder, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TagStore interface {
	List(ctx context.Context, teamID primitive.ObjectID) ([]models.Tag, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Tag, error)
	Create(ctx context.Context, teamID primitive.ObjectID, name string, createdBy primitive.ObjectID) (models.Tag, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListForPrompt(ctx context.Context, promptID primitive.ObjectID) ([]models.Tag, error)
}

type PromptReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Prompt, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Stores groups the service's persistence dependencies.
type Stores struct {
	Teams       TeamStore
	Memberships MembershipStore
	Folders     FolderStore
	Tags        TagStore
	Prompts     PromptReader
	Shares      teampolicy.ShareReader
	Users       UserReader
}

type Service struct {
	st     Stores
	access *teampolicy.Policy
	log    *zap.Logger
	audit  *auditlog.Logger
}

func New(st Stores, logger *zap.Logger, audit *auditlog.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		st:     st,
		access: teampolicy.New(st.Memberships, st.Shares),
		log:    logger,
		audit:  audit,
	}
}

func caller(ctx context.Context) (identity.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return identity.Identity{}, apperr.Unauthenticated()
	}
	return id, nil
}

type teamCheck func(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error)

// require resolves the caller and applies check to teamID.
func (s *Service) require(ctx context.Context, teamID primitive.ObjectID, check teamCheck) (identity.Identity, error) {
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

func requiredName(what, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("%s name is required", what)
	}
	return name, nil
}
