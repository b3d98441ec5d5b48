// internal/app/features/dashboard/transfer.go
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type importResponse struct {
	lifecycle.ImportResult
	Message string `json:"message"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/export                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	doc, err := h.Prompts.Export(ctx, teamID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	jsonutil.Attachment(w, lifecycle.ExportFilename(h.Now().UTC().Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		h.Log.Warn("export: write response", zap.Error(err))
		return
	}
	h.Log.Info("prompts exported",
		zap.String("team_id", teamID.Hex()),
		zap.Int("count", len(doc.Prompts)))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/import                                                             |
| Accepts the export document as the request body or as a multipart "file".   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	res, err := h.Prompts.Import(ctx, teamID, bytes.NewReader(data))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, importResponse{ImportResult: res, Message: res.Summary()})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.ImportMaxBytes)

	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, h.uploadErr(err, "a \"file\" field is required")
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, h.uploadErr(err, "could not read the import file")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperr.Validation("import file is empty")
	}
	return data, nil
}

func (h *Handler) uploadErr(err error, msg string) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apperr.Validation("import file exceeds %d bytes", h.ImportMaxBytes)
	}
	return apperr.Validation("%s", msg)
}
