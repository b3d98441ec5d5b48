package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PromptVersion is an immutable snapshot of a prompt's title and body.
// Versions are append-only; nothing in the normal flow updates or deletes them.
type PromptVersion struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PromptID   primitive.ObjectID `bson:"prompt_id" json:"prompt_id"`
	Title      string             `bson:"title" json:"title"`
	BodyMD     string             `bson:"body_md" json:"body_md"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	ChangeNote *string            `bson:"change_note,omitempty" json:"change_note"`
}
