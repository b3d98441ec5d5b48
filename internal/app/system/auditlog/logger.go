// Package auditlog records prompt and team lifecycle events.
//
// Every event goes to the main zap logger with audit=true. When a file path
// is configured the same event is also written as a JSON line to a
// lumberjack-rotated audit file, so the trail survives log-level changes on
// the main logger.
package auditlog

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Event categories.
const (
	CategoryAuth   = "auth"
	CategoryPrompt = "prompt"
	CategoryTeam   = "team"
)

// Event types.
const (
	EventSignIn           = "sign_in"
	EventSignInFailed     = "sign_in_failed"
	EventSignOut          = "sign_out"
	EventUserRegistered   = "user_registered"
	EventPromptCreated    = "prompt_created"
	EventPromptPublished  = "prompt_published"
	EventPromptPrivate    = "prompt_unpublished"
	EventVisibility       = "prompt_visibility_changed"
	EventVersionRestored  = "prompt_version_restored"
	EventPromptDeleted    = "prompt_deleted"
	EventPromptsImported  = "prompts_imported"
	EventPromptShared     = "prompt_shared"
	EventShareRevoked     = "prompt_share_revoked"
	EventTeamCreated      = "team_created"
	EventTeamDeleted      = "team_deleted"
	EventMemberAdded      = "member_added"
	EventMemberRoleChange = "member_role_changed"
	EventMemberRemoved    = "member_removed"
)

// Event is one audit record.
type Event struct {
	Category  string
	EventType string

	ActorID  *primitive.ObjectID
	TeamID   *primitive.ObjectID
	PromptID *primitive.ObjectID

	IP            string
	Success       bool
	FailureReason string
	Details       map[string]string
}

// Config selects the rotating audit file. An empty Path disables the file.
type Config struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes audit events. A nil *Logger is a valid no-op.
type Logger struct {
	zapLog *zap.Logger
	file   *zap.Logger
	closer io.Closer
}

// New creates a Logger. With cfg.Path set, events are also appended to a
// rotating JSON file.
func New(zapLog *zap.Logger, cfg Config) *Logger {
	l := &Logger{zapLog: zapLog}
	if cfg.Path == "" {
		return l
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 10),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   true,
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(lj), zap.InfoLevel)

	l.file = zap.New(core)
	l.closer = lj
	return l
}

// Close flushes and closes the audit file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = l.file.Sync()
	return l.closer.Close()
}

// Log records event. The actor defaults to the identity in ctx.
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.ActorID == nil {
		if id, ok := identity.FromContext(ctx); ok {
			uid := id.UserID
			event.ActorID = &uid
		}
	}

	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TeamID != nil {
		fields = append(fields, zap.String("team_id", event.TeamID.Hex()))
	}
	if event.PromptID != nil {
		fields = append(fields, zap.String("prompt_id", event.PromptID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	for _, lg := range []*zap.Logger{l.zapLog, l.file} {
		if lg == nil {
			continue
		}
		if event.Success {
			lg.Info("audit event", fields...)
		} else {
			lg.Warn("audit event", fields...)
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Auth events                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// SignIn logs a successful sign-in.
func (l *Logger) SignIn(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) {
	l.Log(ctx, Event{
		Category:  CategoryAuth,
		EventType: EventSignIn,
		ActorID:   &userID,
		IP:        clientIP(r),
		Success:   true,
		Details:   map[string]string{"auth_method": method},
	})
}

// SignInFailed logs a rejected sign-in attempt.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, Event{
		Category:      CategoryAuth,
		EventType:     EventSignInFailed,
		IP:            clientIP(r),
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// SignOut logs a sign-out.
func (l *Logger) SignOut(ctx context.Context, r *http.Request) {
	l.Log(ctx, Event{Category: CategoryAuth, EventType: EventSignOut, IP: clientIP(r), Success: true})
}

// UserRegistered logs a new account.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) {
	l.Log(ctx, Event{
		Category:  CategoryAuth,
		EventType: EventUserRegistered,
		ActorID:   &userID,
		IP:        clientIP(r),
		Success:   true,
		Details:   map[string]string{"auth_method": method},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Prompt events                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) prompt(ctx context.Context, eventType string, teamID, promptID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, Event{
		Category:  CategoryPrompt,
		EventType: eventType,
		TeamID:    &teamID,
		PromptID:  &promptID,
		Success:   true,
		Details:   details,
	})
}

// PromptCreated logs a new prompt.
func (l *Logger) PromptCreated(ctx context.Context, teamID, promptID primitive.ObjectID, visibility string) {
	l.prompt(ctx, EventPromptCreated, teamID, promptID, map[string]string{"visibility": visibility})
}

// PromptPublished logs a publish and the slug it issued.
func (l *Logger) PromptPublished(ctx context.Context, teamID, promptID primitive.ObjectID, slug string) {
	l.prompt(ctx, EventPromptPublished, teamID, promptID, map[string]string{"slug": slug})
}

// PromptUnpublished logs a prompt leaving public visibility.
func (l *Logger) PromptUnpublished(ctx context.Context, teamID, promptID primitive.ObjectID, revokedSlug string) {
	l.prompt(ctx, EventPromptPrivate, teamID, promptID, map[string]string{"revoked_slug": revokedSlug})
}

// VisibilityChanged logs a transition between non-public tiers.
func (l *Logger) VisibilityChanged(ctx context.Context, teamID, promptID primitive.ObjectID, from, to string) {
	l.prompt(ctx, EventVisibility, teamID, promptID, map[string]string{"from": from, "to": to})
}

// VersionRestored logs a restore of versionID onto the prompt.
func (l *Logger) VersionRestored(ctx context.Context, teamID, promptID, versionID primitive.ObjectID) {
	l.prompt(ctx, EventVersionRestored, teamID, promptID, map[string]string{"version_id": versionID.Hex()})
}

// PromptDeleted logs a hard delete.
func (l *Logger) PromptDeleted(ctx context.Context, teamID, promptID primitive.ObjectID) {
	l.prompt(ctx, EventPromptDeleted, teamID, promptID, nil)
}

// PromptShared logs a share grant.
func (l *Logger) PromptShared(ctx context.Context, teamID, promptID, target primitive.ObjectID, permission string) {
	l.prompt(ctx, EventPromptShared, teamID, promptID, map[string]string{
		"target_user": target.Hex(),
		"permission":  permission,
	})
}

// ShareRevoked logs removal of a share.
func (l *Logger) ShareRevoked(ctx context.Context, teamID, promptID, shareID primitive.ObjectID) {
	l.prompt(ctx, EventShareRevoked, teamID, promptID, map[string]string{"share_id": shareID.Hex()})
}

// PromptsImported logs the outcome of an import.
func (l *Logger) PromptsImported(ctx context.Context, teamID primitive.ObjectID, imported, total int) {
	l.Log(ctx, Event{
		Category:  CategoryPrompt,
		EventType: EventPromptsImported,
		TeamID:    &teamID,
		Success:   true,
		Details: map[string]string{
			"imported": strconv.Itoa(imported),
			"total":    strconv.Itoa(total),
		},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Team events                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (l *Logger) team(ctx context.Context, eventType string, teamID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, Event{Category: CategoryTeam, EventType: eventType, TeamID: &teamID, Success: true, Details: details})
}

// TeamCreated logs a new team.
func (l *Logger) TeamCreated(ctx context.Context, teamID primitive.ObjectID, name string) {
	l.team(ctx, EventTeamCreated, teamID, map[string]string{"name": name})
}

// TeamDeleted logs a team delete and its cascade.
func (l *Logger) TeamDeleted(ctx context.Context, teamID primitive.ObjectID) {
	l.team(ctx, EventTeamDeleted, teamID, nil)
}

// MemberAdded logs a membership grant.
func (l *Logger) MemberAdded(ctx context.Context, teamID, userID primitive.ObjectID, role string) {
	l.team(ctx, EventMemberAdded, teamID, map[string]string{"user_id": userID.Hex(), "role": role})
}

// MemberRoleChanged logs a role change.
func (l *Logger) MemberRoleChanged(ctx context.Context, teamID, userID primitive.ObjectID, role string) {
	l.team(ctx, EventMemberRoleChange, teamID, map[string]string{"user_id": userID.Hex(), "role": role})
}

// MemberRemoved logs a membership removal.
func (l *Logger) MemberRemoved(ctx context.Context, teamID, userID primitive.ObjectID) {
	l.team(ctx, EventMemberRemoved, teamID, map[string]string{"user_id": userID.Hex()})
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
