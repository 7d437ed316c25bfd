package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/pkg/log"
)

// Audit actions for profile-service.
const (
	ActionCreateUser      = "user.create"
	ActionCreateDuplicate = "user.create_duplicate"
	ActionGetProfile      = "user.get_profile"
	ActionAvatarFetch     = "avatar.fetch"
	ActionAvatarCacheHit  = "avatar.cache_hit"
	ActionAvatarDelete    = "avatar.delete"
	ActionAvatarSweep     = "avatar.sweep"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Logger writes audit entries. The request logger from the context is
// preferred so entries carry the request id.
type Logger struct {
	fallback zerolog.Logger
}

// New creates an audit Logger that falls back to logger outside requests.
func New(logger zerolog.Logger) *Logger {
	return &Logger{fallback: logger}
}

// Log emits a structured audit log entry.
func (a *Logger) Log(ctx context.Context, action string, userID string, msg string) {
	l := log.CtxOr(ctx, a.fallback)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func (a *Logger) LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.CtxOr(ctx, a.fallback)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
