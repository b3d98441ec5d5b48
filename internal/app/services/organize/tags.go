package organize

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListTags returns the team's tags by name.
func (s *Service) ListTags(ctx context.Context, teamID primitive.ObjectID) ([]models.Tag, error) {
	if _, err := s.require(ctx, teamID, s.access.CanReadTeam); err != nil {
		return nil, err
	}
	return s.st.Tags.List(ctx, teamID)
}

// CreateTag adds a tag to the team. Names are unique within a team; the
// same name in another team is fine.
func (s *Service) CreateTag(ctx context.Context, teamID primitive.ObjectID, name string) (models.Tag, error) {
	name, err := requiredName("tag", name)
	if err != nil {
		return models.Tag{}, err
	}
	who, err := s.require(ctx, teamID, s.access.CanWriteTeam)
	if err != nil {
		return models.Tag{}, err
	}
	return s.st.Tags.Create(ctx, teamID, name, who.UserID)
}

// DeleteTag removes a tag and detaches it from every prompt.
func (s *Service) DeleteTag(ctx context.Context, id primitive.ObjectID) error {
	t, err := s.st.Tags.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.require(ctx, t.TeamID, s.access.CanWriteTeam); err != nil {
		if apperr.KindOf(err) == apperr.ErrNotFound {
			return apperr.NotFound("tag")
		}
		return err
	}
	return s.st.Tags.Delete(ctx, id)
}

// PromptTags returns the tags linked to a prompt the caller can see. Links
// to tags that no longer exist are dropped.
func (s *Service) PromptTags(ctx context.Context, promptID primitive.ObjectID) ([]models.Tag, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.st.Prompts.GetByID(ctx, promptID)
	if err != nil {
		return nil, err
	}
	a, err := s.access.PromptAccess(ctx, p, who.UserID)
	if err != nil {
		return nil, err
	}
	if !a.View {
		return nil, apperr.NotFound("prompt")
	}
	return s.st.Tags.ListForPrompt(ctx, promptID)
}
