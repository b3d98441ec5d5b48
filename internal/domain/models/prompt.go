package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility tiers.
const (
	VisibilityPrivate = "private"
	VisibilityTeam    = "team"
	VisibilityPublic  = "public"
)

// TitleMaxLen is the longest title the editor accepts.
const TitleMaxLen = 140

// Prompt is a titled Markdown document owned by a user within a team.
//
// PublicSlug is set if and only if Visibility is "public". Tags is populated
// only by reads that resolve the prompt_tags join; it is never stored.
type Prompt struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TeamID     primitive.ObjectID  `bson:"team_id" json:"team_id"`
	FolderID   *primitive.ObjectID `bson:"folder_id,omitempty" json:"folder_id"`
	OwnerID    primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	Title      string              `bson:"title" json:"title"`
	TitleCI    string              `bson:"title_ci" json:"-"`
	BodyMD     string              `bson:"body_md" json:"body_md"`
	Visibility string              `bson:"visibility" json:"visibility"`
	PublicSlug *string             `bson:"public_slug,omitempty" json:"public_slug"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updated_at"`

	Tags []Tag `bson:"-" json:"tags,omitempty"`
}

// IsPublic reports whether the prompt is reachable through its slug.
func (p Prompt) IsPublic() bool {
	return p.Visibility == VisibilityPublic && p.PublicSlug != nil
}

// ValidVisibility reports whether v is a known visibility tier.
func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityPublic:
		return true
	}
	return false
}
