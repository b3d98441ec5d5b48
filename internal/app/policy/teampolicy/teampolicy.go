// Package teampolicy provides authorization policies for teams and prompts.
//
// Authorization rules:
//   - Any team member can read the team's folders, tags and non-private prompts
//   - Editors and owners can create and change team content
//   - Owners manage the team itself (rename, delete, membership)
//   - A prompt's owner can do anything with it; the team owner can manage it
//   - An explicit share grants view or edit on one prompt regardless of membership
//
// A denied check surfaces to callers as NotFound, never as a distinct
// "forbidden" error, so a caller cannot learn of records it cannot see.
package teampolicy

import (
	"context"
	"errors"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipReader looks up a user's role in a team.
type MembershipReader interface {
	Get(ctx context.Context, teamID, userID primitive.ObjectID) (models.Membership, error)
}

// ShareReader looks up a user's explicit grant on a prompt.
type ShareReader interface {
	GetForUser(ctx context.Context, promptID, userID primitive.ObjectID) (models.Share, error)
}

// Access is the set of things a user may do with one prompt.
type Access struct {
	View   bool
	Edit   bool
	Manage bool
}

// Policy answers authorization questions against memberships and shares.
type Policy struct {
	members MembershipReader
	shares  ShareReader
}

func New(members MembershipReader, shares ShareReader) *Policy {
	return &Policy{members: members, shares: shares}
}

// Role returns userID's role in teamID, or "" when the user is not a member.
func (p *Policy) Role(ctx context.Context, teamID, userID primitive.ObjectID) (string, error) {
	m, err := p.members.Get(ctx, teamID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// CanReadTeam reports whether userID belongs to teamID in any role.
func (p *Policy) CanReadTeam(ctx context.Context, teamID, userID primitive.ObjectID) (bool, error) {
	role, err := p.Role(ctx, teamID, userID)
	return role != "", err
}

// CanWriteTeam reports whether userID may create content in teamID.
func (p *Policy) CanWriteTeam(ctx context.Context, teamID, userID primitive.ObjectID) (bool, error) {
	role, err := p.Role(ctx, teamID, userID)
	return CanWrite(role), err
}

// CanManageTeam reports whether userID owns teamID.
func (p *Policy) CanManageTeam(ctx context.Context, teamID, userID primitive.ObjectID) (bool, error) {
	role, err := p.Role(ctx, teamID, userID)
	return role == models.RoleOwner, err
}

// CanWrite reports whether role may create or change team content.
func CanWrite(role string) bool {
	return role == models.RoleOwner || role == models.RoleEditor
}

// PromptAccess resolves what userID may do with prompt.
// The share lookup only happens when role alone does not already grant edit.
func (p *Policy) PromptAccess(ctx context.Context, prompt models.Prompt, userID primitive.ObjectID) (Access, error) {
	if prompt.OwnerID == userID {
		return Decide(prompt, userID, "", nil), nil
	}

	role, err := p.Role(ctx, prompt.TeamID, userID)
	if err != nil {
		return Access{}, err
	}
	if a := Decide(prompt, userID, role, nil); a.Edit {
		return a, nil
	}

	sh, err := p.shares.GetForUser(ctx, prompt.ID, userID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return Decide(prompt, userID, role, nil), nil
	case err != nil:
		return Access{}, err
	}
	return Decide(prompt, userID, role, &sh), nil
}

// Decide is the pure access rule: given the caller's team role ("" for none)
// and share (nil for none), what may they do with prompt.
func Decide(prompt models.Prompt, userID primitive.ObjectID, role string, share *models.Share) Access {
	if prompt.OwnerID == userID {
		return Access{View: true, Edit: true, Manage: true}
	}

	var a Access
	if role != "" && prompt.Visibility != models.VisibilityPrivate {
		a.View = true
		a.Edit = CanWrite(role)
	}
	if role == models.RoleOwner {
		a.View = true
		a.Manage = true
	}
	if share != nil {
		a.View = true
		if share.Permission == models.PermissionEdit {
			a.Edit = true
		}
	}
	return a
}
