package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/metrics"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ImportResult counts the records of one import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
	Skipped  int `json:"skipped"`
}

// Summary is the user-facing outcome line.
func (r ImportResult) Summary() string {
	return fmt.Sprintf("Imported %d of %d", r.Imported, r.Total)
}

// ExportFilename is the attachment name for an export taken on day.
func ExportFilename(day string) string {
	return "promptstash-export-" + day + ".json"
}

// Export returns every prompt of the team the caller can see in the
// portable export format. Folders and tags are not part of it.
func (m *Manager) Export(ctx context.Context, teamID primitive.ObjectID) (models.ExportDocument, error) {
	prompts, err := m.List(ctx, teamID, ListFilter{})
	if err != nil {
		return models.ExportDocument{}, err
	}
	doc := models.ExportDocument{
		Version:    models.ExportFormatVersion,
		ExportDate: m.now().UTC(),
		Prompts:    make([]models.ExportedPrompt, 0, len(prompts)),
	}
	for _, p := range prompts {
		doc.Prompts = append(doc.Prompts, models.ExportedPrompt{
			Title:      p.Title,
			BodyMD:     p.BodyMD,
			Visibility: p.Visibility,
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return doc, nil
}

type importRecord struct {
	Title      string `json:"title"`
	BodyMD     string `json:"body_md"`
	Visibility string `json:"visibility"`
}

// Import creates one prompt per record of an export document. A document
// without a prompts array fails as a whole; after that each record stands
// alone and a record that cannot be created is counted as skipped.
func (m *Manager) Import(ctx context.Context, teamID primitive.ObjectID, r io.Reader) (ImportResult, error) {
	if _, err := m.requireTeam(ctx, teamID, m.access.CanWriteTeam); err != nil {
		return ImportResult{}, err
	}

	var doc struct {
		Prompts json.RawMessage `json:"prompts"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, apperr.Validation("invalid export file format")
	}
	var records []json.RawMessage
	if err := json.Unmarshal(doc.Prompts, &records); err != nil || records == nil {
		return ImportResult{}, apperr.Validation("invalid export file format")
	}

	res := ImportResult{Total: len(records)}
	for i, raw := range records {
		if err := m.importOne(ctx, teamID, raw); err != nil {
			res.Skipped++
			m.log.Debug("import: record skipped", zap.Int("index", i), zap.Error(err))
			continue
		}
		res.Imported++
	}

	metrics.RecordImport(res.Imported, res.Skipped)
	m.audit.PromptsImported(ctx, teamID, res.Imported, res.Total)
	return res, nil
}

func (m *Manager) importOne(ctx context.Context, teamID primitive.ObjectID, raw json.RawMessage) error {
	var rec importRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return apperr.Validation("malformed prompt record")
	}
	_, err := m.Create(ctx, CreateInput{
		TeamID:     teamID,
		Title:      rec.Title,
		BodyMD:     rec.BodyMD,
		Visibility: rec.Visibility,
	})
	return err
}
