// internal/app/features/folders/folders.go
package folders

import (
	"context"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/features/shared"
	"github.com/dalemusser/promptstash/internal/app/system/jsonutil"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/dalemusser/promptstash/internal/domain/models"
)

type createRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type parentRequest struct {
	ParentID *string `json:"parent_id"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/folders                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	folders, err := h.Org.ListFolders(ctx, teamID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /app/folders/tree                                                        |
| Nested folders for the sidebar; orphans show at the root.                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeTree(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tree, err := h.Org.FolderTree(ctx, teamID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"tree": tree})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /app/folders                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	teamID, err := shared.Team(shared.Session(r))
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req createRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	parentID, err := shared.OptionalID(req.ParentID, "parent folder")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Org.CreateFolder(ctx, teamID, req.Name, parentID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusCreated, f)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /app/folders/{folderID}                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "folderID", "folder")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req renameRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Org.RenameFolder(ctx, id, req.Name)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, f)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /app/folders/{folderID}/parent                                           |
| A null or empty parent_id makes the folder a root folder.                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "folderID", "folder")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	var req parentRequest
	if err := jsonutil.Decode(w, r, 0, &req); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	parentID, err := shared.OptionalID(req.ParentID, "parent folder")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.Org.MoveFolder(ctx, id, parentID)
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, f)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /app/folders/{folderID}                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "folderID", "folder")
	if err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Org.DeleteFolder(ctx, id); err != nil {
		jsonutil.WriteError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
