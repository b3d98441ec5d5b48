package organize

import (
	"context"

	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListFolders returns the team's folders by name.
func (s *Service) ListFolders(ctx context.Context, teamID primitive.ObjectID) ([]models.Folder, error) {
	if _, err := s.require(ctx, teamID, s.access.CanReadTeam); err != nil {
		return nil, err
	}
	return s.st.Folders.List(ctx, teamID)
}

func (s *Service) GetFolder(ctx context.Context, id primitive.ObjectID) (models.Folder, error) {
	f, err := s.st.Folders.GetByID(ctx, id)
	if err != nil {
		return models.Folder{}, err
	}
	if _, err := s.require(ctx, f.TeamID, s.access.CanReadTeam); err != nil {
		return models.Folder{}, apperr.NotFound("folder")
	}
	return f, nil
}

// CreateFolder adds a folder to the team, under parentID when given. The
// parent must be a folder of the same team.
func (s *Service) CreateFolder(ctx context.Context, teamID primitive.ObjectID, name string, parentID *primitive.ObjectID) (models.Folder, error) {
	name, err := requiredName("folder", name)
	if err != nil {
		return models.Folder{}, err
	}
	who, err := s.require(ctx, teamID, s.access.CanWriteTeam)
	if err != nil {
		return models.Folder{}, err
	}
	if parentID != nil {
		if err := s.parentInTeam(ctx, teamID, *parentID); err != nil {
			return models.Folder{}, err
		}
	}
	return s.st.Folders.Create(ctx, models.Folder{
		TeamID:    teamID,
		ParentID:  parentID,
		Name:      name,
		CreatedBy: who.UserID,
	})
}

func (s *Service) RenameFolder(ctx context.Context, id primitive.ObjectID, name string) (models.Folder, error) {
	name, err := requiredName("folder", name)
	if err != nil {
		return models.Folder{}, err
	}
	if _, err := s.writableFolder(ctx, id); err != nil {
		return models.Folder{}, err
	}
	return s.st.Folders.Rename(ctx, id, name)
}

// MoveFolder re-parents a folder, or makes it a root folder when parentID
// is nil. Moving a folder under itself or one of its descendants is
// rejected, as is a parent from another team.
func (s *Service) MoveFolder(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) (models.Folder, error) {
	f, err := s.writableFolder(ctx, id)
	if err != nil {
		return models.Folder{}, err
	}
	if parentID == nil {
		return s.st.Folders.SetParent(ctx, id, nil)
	}
	if *parentID == id {
		return models.Folder{}, apperr.Validation("a folder cannot be its own parent")
	}
	if err := s.parentInTeam(ctx, f.TeamID, *parentID); err != nil {
		return models.Folder{}, err
	}
	if err := s.checkNoCycle(ctx, id, *parentID); err != nil {
		return models.Folder{}, err
	}
	return s.st.Folders.SetParent(ctx, id, parentID)
}

// DeleteFolder removes an empty-of-subfolders folder; its prompts move to
// the team root.
func (s *Service) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.writableFolder(ctx, id); err != nil {
		return err
	}
	return s.st.Folders.Delete(ctx, id)
}

// FolderTree nests the team's folders under their parents. Folders whose
// parent is missing are shown at the root.
func (s *Service) FolderTree(ctx context.Context, teamID primitive.ObjectID) ([]*models.FolderNode, error) {
	folders, err := s.ListFolders(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return BuildTree(folders), nil
}

// BuildTree nests folders by ParentID, keeping the input order among
// siblings.
func BuildTree(folders []models.Folder) []*models.FolderNode {
	nodes := make(map[primitive.ObjectID]*models.FolderNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &models.FolderNode{Folder: f, Children: []*models.FolderNode{}}
	}
	roots := []*models.FolderNode{}
	for _, f := range folders {
		n := nodes[f.ID]
		if f.ParentID != nil {
			if parent, ok := nodes[*f.ParentID]; ok && *f.ParentID != f.ID {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

func (s *Service) writableFolder(ctx context.Context, id primitive.ObjectID) (models.Folder, error) {
	f, err := s.st.Folders.GetByID(ctx, id)
	if err != nil {
		return models.Folder{}, err
	}
	if _, err := s.require(ctx, f.TeamID, s.access.CanWriteTeam); err != nil {
		if apperr.KindOf(err) == apperr.ErrNotFound {
			return models.Folder{}, apperr.NotFound("folder")
		}
		return models.Folder{}, err
	}
	return f, nil
}

func (s *Service) parentInTeam(ctx context.Context, teamID, parentID primitive.ObjectID) error {
	p, err := s.st.Folders.GetByID(ctx, parentID)
	if apperr.KindOf(err) == apperr.ErrNotFound {
		return apperr.Validation("parent folder does not exist")
	}
	if err != nil {
		return err
	}
	if p.TeamID != teamID {
		return apperr.Validation("parent folder belongs to a different team")
	}
	return nil
}

// checkNoCycle walks the ancestor chain of parentID and fails if it reaches
// id. The walk stops at a folder already seen, so a pre-existing loop in
// stored data cannot hang it.
func (s *Service) checkNoCycle(ctx context.Context, id, parentID primitive.ObjectID) error {
	seen := map[primitive.ObjectID]bool{}
	cur := &parentID
	for cur != nil && !seen[*cur] {
		if *cur == id {
			return apperr.Validation("cannot move a folder into one of its own subfolders")
		}
		seen[*cur] = true
		f, err := s.st.Folders.GetByID(ctx, *cur)
		if apperr.KindOf(err) == apperr.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		cur = f.ParentID
	}
	return nil
}
