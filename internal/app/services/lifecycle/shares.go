package lifecycle

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListShares returns a prompt's explicit grants in creation order.
func (m *Manager) ListShares(ctx context.Context, promptID primitive.ObjectID) ([]models.Share, error) {
	if _, _, err := m.load(ctx, promptID, canManage); err != nil {
		return nil, err
	}
	return m.st.Shares.List(ctx, promptID)
}

// Share grants target view or edit access to one prompt.
func (m *Manager) Share(ctx context.Context, promptID, target primitive.ObjectID, permission string) (models.Share, error) {
	if !models.ValidPermission(permission) {
		return models.Share{}, apperr.Validation("permission must be view or edit")
	}
	p, _, err := m.load(ctx, promptID, canManage)
	if err != nil {
		return models.Share{}, err
	}
	if target == p.OwnerID {
		return models.Share{}, apperr.Validation("a prompt cannot be shared with its owner")
	}
	if _, err := m.st.Users.GetByID(ctx, target); err != nil {
		return models.Share{}, err
	}

	sh, err := m.st.Shares.Create(ctx, promptID, target, permission)
	if err != nil {
		return models.Share{}, err
	}
	m.audit.PromptShared(ctx, p.TeamID, p.ID, target, permission)
	return sh, nil
}

// UpdateShare changes the permission of one of the prompt's shares.
func (m *Manager) UpdateShare(ctx context.Context, promptID, shareID primitive.ObjectID, permission string) (models.Share, error) {
	if !models.ValidPermission(permission) {
		return models.Share{}, apperr.Validation("permission must be view or edit")
	}
	if _, err := m.shareOf(ctx, promptID, shareID); err != nil {
		return models.Share{}, err
	}
	return m.st.Shares.UpdatePermission(ctx, shareID, permission)
}

// RevokeShare removes one of the prompt's shares.
func (m *Manager) RevokeShare(ctx context.Context, promptID, shareID primitive.ObjectID) error {
	p, err := m.shareOf(ctx, promptID, shareID)
	if err != nil {
		return err
	}
	if err := m.st.Shares.Delete(ctx, shareID); err != nil {
		return err
	}
	m.audit.ShareRevoked(ctx, p.TeamID, p.ID, shareID)
	return nil
}

// shareOf loads the prompt for management and checks shareID is one of its
// shares.
func (m *Manager) shareOf(ctx context.Context, promptID, shareID primitive.ObjectID) (models.Prompt, error) {
	p, _, err := m.load(ctx, promptID, canManage)
	if err != nil {
		return models.Prompt{}, err
	}
	sh, err := m.st.Shares.GetByID(ctx, shareID)
	if err != nil {
		return models.Prompt{}, err
	}
	if sh.PromptID != promptID {
		return models.Prompt{}, apperr.NotFound("share")
	}
	return p, nil
}
