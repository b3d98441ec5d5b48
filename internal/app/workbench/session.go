// Package workbench holds the client-interaction state of the prompt
// workbench: the selected team/folder/tag, search and autosave sequencing,
// bulk selection, drag-and-drop and optimistic tag edits.
//
// Nothing here is package state. Handlers and clients build the values they
// need and pass them explicitly.
package workbench

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the request-scoped selection. A zero TeamID means no team is
// selected; nil FolderID/TagID mean "all".
type Session struct {
	UserID   primitive.ObjectID
	TeamID   primitive.ObjectID
	FolderID *primitive.ObjectID
	TagID    *primitive.ObjectID
}

func (s Session) HasTeam() bool { return !s.TeamID.IsZero() }

// WithTeam switches team. Folder and tag belong to a team, so both reset.
func (s Session) WithTeam(id primitive.ObjectID) Session {
	if s.TeamID == id {
		return s
	}
	s.TeamID = id
	s.FolderID = nil
	s.TagID = nil
	return s
}

func (s Session) WithFolder(id *primitive.ObjectID) Session {
	s.FolderID = copyID(id)
	return s
}

func (s Session) WithTag(id *primitive.ObjectID) Session {
	s.TagID = copyID(id)
	return s
}

func copyID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the Session in ctx.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
