package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tag is a label in a team's flat tag namespace; (team_id, name) is unique.
type Tag struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID `bson:"team_id" json:"team_id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// PromptTag joins prompts and tags. Exactly one document per (prompt_id, tag_id).
type PromptTag struct {
	PromptID primitive.ObjectID `bson:"prompt_id" json:"prompt_id"`
	TagID    primitive.ObjectID `bson:"tag_id" json:"tag_id"`
}
