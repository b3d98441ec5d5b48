package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is the root scope for folders, prompts and tags.
// A team has exactly one owner; everyone else joins through a Membership.
type Team struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
