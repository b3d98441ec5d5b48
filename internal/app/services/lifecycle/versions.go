package lifecycle

import (
	"context"

	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListVersions returns a prompt's snapshots, newest first.
func (m *Manager) ListVersions(ctx context.Context, promptID primitive.ObjectID) ([]models.PromptVersion, error) {
	if _, _, err := m.load(ctx, promptID, canView); err != nil {
		return nil, err
	}
	return m.st.Versions.List(ctx, promptID)
}

// CreateVersion snapshots the prompt's current title and body.
func (m *Manager) CreateVersion(ctx context.Context, promptID primitive.ObjectID, note *string) (models.PromptVersion, error) {
	p, who, err := m.load(ctx, promptID, canEdit)
	if err != nil {
		return models.PromptVersion{}, err
	}
	return m.st.Versions.Create(ctx, models.PromptVersion{
		PromptID:   p.ID,
		Title:      p.Title,
		BodyMD:     p.BodyMD,
		CreatedBy:  who.UserID,
		ChangeNote: cleanNote(note),
	})
}

// RestoreVersion copies a snapshot's title and body back onto the prompt.
// Folder, visibility, slug and tags are left as they are, and the version
// history is not touched.
func (m *Manager) RestoreVersion(ctx context.Context, promptID, versionID primitive.ObjectID) (p models.Prompt, err error) {
	defer func() { observe("restore", err) }()

	cur, _, err := m.load(ctx, promptID, canEdit)
	if err != nil {
		return models.Prompt{}, err
	}
	v, err := m.st.Versions.GetByID(ctx, versionID)
	if err != nil {
		return models.Prompt{}, err
	}
	if v.PromptID != cur.ID {
		return models.Prompt{}, apperr.NotFound("version")
	}

	title, body := v.Title, v.BodyMD
	p, err = m.st.Prompts.Update(ctx, cur.ID, promptstore.Patch{Title: &title, BodyMD: &body})
	if err != nil {
		return models.Prompt{}, err
	}
	m.audit.VersionRestored(ctx, p.TeamID, p.ID, v.ID)
	return p, nil
}
