package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Share permissions.
const (
	PermissionView = "view"
	PermissionEdit = "edit"
)

// Share is an explicit per-user grant on a prompt, independent of team
// membership and public visibility.
type Share struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PromptID   primitive.ObjectID `bson:"prompt_id" json:"prompt_id"`
	TargetUser primitive.ObjectID `bson:"target_user" json:"target_user"`
	Permission string             `bson:"permission" json:"permission"` // view | edit
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// ValidPermission reports whether p is a known share permission.
func ValidPermission(p string) bool {
	return p == PermissionView || p == PermissionEdit
}
