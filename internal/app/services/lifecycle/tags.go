package lifecycle

import (
	"context"
	"fmt"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AttachTag links a tag from the prompt's team to the prompt. Linking the
// same tag twice is a Conflict.
func (m *Manager) AttachTag(ctx context.Context, promptID, tagID primitive.ObjectID) error {
	p, _, err := m.load(ctx, promptID, canEdit)
	if err != nil {
		return err
	}
	if err := m.tagInTeam(ctx, p.TeamID, tagID); err != nil {
		return err
	}
	return m.st.Tags.Attach(ctx, promptID, tagID)
}

// DetachTag unlinks a tag from the prompt.
func (m *Manager) DetachTag(ctx context.Context, promptID, tagID primitive.ObjectID) error {
	if _, _, err := m.load(ctx, promptID, canEdit); err != nil {
		return err
	}
	return m.st.Tags.Detach(ctx, promptID, tagID)
}

func (m *Manager) tagInTeam(ctx context.Context, teamID, tagID primitive.ObjectID) error {
	t, err := m.st.Tags.GetByID(ctx, tagID)
	if err != nil {
		return err
	}
	if t.TeamID != teamID {
		return apperr.Validation("tag belongs to a different team")
	}
	return nil
}

type tagStep struct {
	tagID  primitive.ObjectID
	attach bool
}

// SyncTags makes the prompt's tag set equal to want. Attaches run before
// detaches. If any step fails, the steps already applied are undone in
// reverse order and the returned error matches both ErrSyncFailed and the
// cause. On success the new tag set is returned.
func (m *Manager) SyncTags(ctx context.Context, promptID primitive.ObjectID, want []primitive.ObjectID) ([]models.Tag, error) {
	p, _, err := m.load(ctx, promptID, canEdit)
	if err != nil {
		return nil, err
	}
	current, err := m.st.Tags.ListForPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}

	have := make(map[primitive.ObjectID]bool, len(current))
	for _, t := range current {
		have[t.ID] = true
	}
	wanted := make(map[primitive.ObjectID]bool, len(want))
	var steps []tagStep
	for _, id := range dedupe(want) {
		wanted[id] = true
		if have[id] {
			continue
		}
		if err := m.tagInTeam(ctx, p.TeamID, id); err != nil {
			return nil, err
		}
		steps = append(steps, tagStep{tagID: id, attach: true})
	}
	for _, t := range current {
		if !wanted[t.ID] {
			steps = append(steps, tagStep{tagID: t.ID})
		}
	}

	for i, s := range steps {
		if err := m.applyTagStep(ctx, promptID, s); err != nil {
			m.compensate(ctx, promptID, steps[:i])
			return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
		}
	}
	return m.st.Tags.ListForPrompt(ctx, promptID)
}

func (m *Manager) applyTagStep(ctx context.Context, promptID primitive.ObjectID, s tagStep) error {
	if s.attach {
		return m.st.Tags.Attach(ctx, promptID, s.tagID)
	}
	return m.st.Tags.Detach(ctx, promptID, s.tagID)
}

// compensate reverts applied steps, newest first. Failures here are logged;
// the caller already reports the sync as failed.
func (m *Manager) compensate(ctx context.Context, promptID primitive.ObjectID, applied []tagStep) {
	for i := len(applied) - 1; i >= 0; i-- {
		undo := tagStep{tagID: applied[i].tagID, attach: !applied[i].attach}
		if err := m.applyTagStep(ctx, promptID, undo); err != nil {
			m.log.Warn("tag sync rollback step failed",
				zap.String("prompt_id", promptID.Hex()),
				zap.String("tag_id", undo.tagID.Hex()),
				zap.Error(err))
		}
	}
}
