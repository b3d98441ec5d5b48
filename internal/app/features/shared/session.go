// internal/app/features/shared/session.go
package shared

import (
	"context"
	"net/http"

	"github.com/dalemusser/promptstash/internal/app/system/auth"
	"github.com/dalemusser/promptstash/internal/app/workbench"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CurrentTeamReader yields the team remembered in the cookie session.
type CurrentTeamReader interface {
	CurrentTeam(r *http.Request) (primitive.ObjectID, bool)
}

// TeamLister lists the caller's teams.
type TeamLister interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// ResolveSession builds the request's workbench.Session for signed-in users.
//
// The team comes from ?team=, else the cookie session, else the first team
// the user belongs to. ?folder= and ?tag= select within the team. Access is
// not checked here; services reject teams the caller cannot see.
func ResolveSession(current CurrentTeamReader, teams TeamLister, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.CurrentUser(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			sess := workbench.Session{UserID: user.UserID}

			if id, ok := queryID(r, "team"); ok {
				sess = sess.WithTeam(*id)
			} else if id, ok := current.CurrentTeam(r); ok {
				sess = sess.WithTeam(id)
			} else if list, err := teams.ListTeams(r.Context()); err != nil {
				logger.Warn("resolve session: list teams", zap.Error(err), zap.String("user_id", user.UserID.Hex()))
			} else if len(list) > 0 {
				sess = sess.WithTeam(list[0].ID)
			}

			if id, ok := queryID(r, "folder"); ok {
				sess = sess.WithFolder(id)
			}
			if id, ok := queryID(r, "tag"); ok {
				sess = sess.WithTag(id)
			}
			next.ServeHTTP(w, r.WithContext(workbench.WithSession(r.Context(), sess)))
		})
	}
}

// Session returns the resolved session, or one with just the caller's id.
func Session(r *http.Request) workbench.Session {
	if s, ok := workbench.SessionFrom(r.Context()); ok {
		return s
	}
	var s workbench.Session
	if u, ok := auth.CurrentUser(r); ok {
		s.UserID = u.UserID
	}
	return s
}

func queryID(r *http.Request, key string) (*primitive.ObjectID, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, false
	}
	oid, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return nil, false
	}
	return &oid, true
}
