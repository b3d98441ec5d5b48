// internal/app/features/prompts/visibility.go
package prompts

import (
	"context"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

type folderRequest struct {
	FolderID *string `json:"folder_id"`
}

type tagsRequest struct {
	TagIDs []string `json:"tag_ids"`
}

type promptOp func(ctx context.Context, id primitive.ObjectID) (models.Prompt, error)

func (h *Handler) serveOp(w http.ResponseWriter, r *http.Request, op promptOp) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := op(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, p)
}

// HandlePublish serves POST /app/p/{promptID}/publish. Every publish issues
// a new link.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	h.serveOp(w, r, h.Prompts.Publish)
}

// HandleUnpublish serves POST /app/p/{promptID}/unpublish.
func (h *Handler) HandleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.serveOp(w, r, h.Prompts.Unpublish)
}

// HandleVisibility serves PUT /app/p/{promptID}/visibility.
func (h *Handler) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}
	h.serveOp(w, r, func(ctx context.Context, id primitive.ObjectID) (models.Prompt, error) {
		return h.Prompts.SetVisibility(ctx, id, req.Visibility)
	})
}

// HandleFolder serves PUT /app/p/{promptID}/folder. A null or empty
// folder_id moves the prompt to the team root.
func (h *Handler) HandleFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}
	folderID, err := shared.OptionalID(req.FolderID, "folder")
	if err != nil {
		h.fail(w, err)
		return
	}
	h.serveOp(w, r, func(ctx context.Context, id primitive.ObjectID) (models.Prompt, error) {
		return h.Prompts.Move(ctx, id, folderID)
	})
}

// HandleTags serves PUT /app/p/{promptID}/tags, replacing the prompt's tag
// set. A failed sync is rolled back and answered with 409 "sync failed".
func (h *Handler) HandleTags(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "promptID", "prompt")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req tagsRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		h.fail(w, err)
		return
	}
	want, err := shared.ParseIDs(req.TagIDs, "tag")
	if err != nil {
		h.fail(w, err)
		return
	}
	tags, err := h.Prompts.SyncTags(r.Context(), id, want)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}
