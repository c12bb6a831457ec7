package audit

import (
	"context"

	"github.com/weiawesome/wes-support-chat/pkg/log"
)

// Audit actions for the support chat.
const (
	ActionSessionOpen  = "support.session_open"
	ActionSessionClose = "support.session_close"
	ActionJoinRoom     = "support.join_room"
	ActionLeaveRoom    = "support.leave_room"
	ActionRoomRedirect = "support.room_redirect"
	ActionEscalation   = "support.crisis_escalation"
	ActionEviction     = "support.session_evicted"
	ActionCaseResolved = "support.case_resolved"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldActor    = "actor"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit entry via the context logger. actor is the
// session id, or the operator id for staff actions.
func Log(ctx context.Context, action, actor, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldActor, actor).
		Msg(msg)
}

// LogWithTarget emits an audit entry about a room or case.
func LogWithTarget(ctx context.Context, action, actor, targetID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldActor, actor).
		Str(FieldTargetID, targetID).
		Msg(msg)
}

// LogWithDetail emits an audit entry with a free-form detail field.
func LogWithDetail(ctx context.Context, action, actor, targetID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldActor, actor).
		Str(FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
