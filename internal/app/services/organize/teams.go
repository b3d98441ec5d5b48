package organize

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListTeams returns the caller's teams by name.
func (s *Service) ListTeams(ctx context.Context) ([]models.Team, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.st.Teams.ListForUser(ctx, who.UserID)
}

func (s *Service) GetTeam(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	if _, err := s.require(ctx, id, s.access.CanReadTeam); err != nil {
		return models.Team{}, err
	}
	return s.st.Teams.GetByID(ctx, id)
}

// CreateTeam creates a team owned by the caller, with the owner membership.
func (s *Service) CreateTeam(ctx context.Context, name string) (models.Team, error) {
	who, err := caller(ctx)
	if err != nil {
		return models.Team{}, err
	}
	name, err = requiredName("team", name)
	if err != nil {
		return models.Team{}, err
	}
	t, err := s.st.Teams.Create(ctx, name, who.UserID)
	if err != nil {
		return models.Team{}, err
	}
	s.audit.TeamCreated(ctx, t.ID, t.Name)
	return t, nil
}

func (s *Service) RenameTeam(ctx context.Context, id primitive.ObjectID, name string) (models.Team, error) {
	name, err := requiredName("team", name)
	if err != nil {
		return models.Team{}, err
	}
	if _, err := s.require(ctx, id, s.access.CanManageTeam); err != nil {
		return models.Team{}, err
	}
	return s.st.Teams.Rename(ctx, id, name)
}

// DeleteTeam removes the team and everything scoped to it.
func (s *Service) DeleteTeam(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.require(ctx, id, s.access.CanManageTeam); err != nil {
		return err
	}
	if err := s.st.Teams.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.TeamDeleted(ctx, id)
	return nil
}

// ListMembers returns the team's memberships in join order.
func (s *Service) ListMembers(ctx context.Context, teamID primitive.ObjectID) ([]models.Membership, error) {
	if _, err := s.require(ctx, teamID, s.access.CanReadTeam); err != nil {
		return nil, err
	}
	return s.st.Memberships.List(ctx, teamID)
}

// AddMember grants userID a role. The owner role is reserved for the team
// owner and cannot be granted.
func (s *Service) AddMember(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error) {
	if err := assignableRole(role); err != nil {
		return models.Membership{}, err
	}
	if _, err := s.require(ctx, teamID, s.access.CanManageTeam); err != nil {
		return models.Membership{}, err
	}
	if _, err := s.st.Users.GetByID(ctx, userID); err != nil {
		return models.Membership{}, err
	}
	m, err := s.st.Memberships.Add(ctx, teamID, userID, role)
	if err != nil {
		return models.Membership{}, err
	}
	s.audit.MemberAdded(ctx, teamID, userID, role)
	return m, nil
}

// ChangeRole sets a member's role. The team owner's own membership is fixed.
func (s *Service) ChangeRole(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Membership, error) {
	if err := assignableRole(role); err != nil {
		return models.Membership{}, err
	}
	if _, err := s.require(ctx, teamID, s.access.CanManageTeam); err != nil {
		return models.Membership{}, err
	}
	if err := s.notOwner(ctx, teamID, userID, "the team owner's role cannot be changed"); err != nil {
		return models.Membership{}, err
	}
	m, err := s.st.Memberships.UpdateRole(ctx, teamID, userID, role)
	if err != nil {
		return models.Membership{}, err
	}
	s.audit.MemberRoleChanged(ctx, teamID, userID, role)
	return m, nil
}

// RemoveMember removes userID from the team. Owners can remove anyone but
// themselves; any member can remove themselves.
func (s *Service) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	who, err := caller(ctx)
	if err != nil {
		return err
	}
	check := s.access.CanManageTeam
	if who.UserID == userID {
		check = s.access.CanReadTeam
	}
	if _, err := s.require(ctx, teamID, check); err != nil {
		return err
	}
	if err := s.notOwner(ctx, teamID, userID, "the team owner cannot be removed"); err != nil {
		return err
	}
	if err := s.st.Memberships.Remove(ctx, teamID, userID); err != nil {
		return err
	}
	s.audit.MemberRemoved(ctx, teamID, userID)
	return nil
}

func (s *Service) notOwner(ctx context.Context, teamID, userID primitive.ObjectID, msg string) error {
	t, err := s.st.Teams.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if t.OwnerID == userID {
		return apperr.Conflict(msg, nil)
	}
	return nil
}

func assignableRole(role string) error {
	if role != models.RoleEditor && role != models.RoleViewer {
		return apperr.Validation("role must be editor or viewer")
	}
	return nil
}
