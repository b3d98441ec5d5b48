package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder is a node in a team's folder tree. A nil ParentID marks a root folder.
type Folder struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID  `bson:"team_id" json:"team_id"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id"`
	Name      string              `bson:"name" json:"name"`
	NameCI    string              `bson:"name_ci" json:"-"`
	CreatedBy primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// FolderNode is a folder with its children, used for the sidebar tree.
type FolderNode struct {
	Folder
	Children []*FolderNode `json:"children"`
}
