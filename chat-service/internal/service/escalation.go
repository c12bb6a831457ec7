package service

import (
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/audit"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/classifier"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/events"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/hub"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

const (
	crisisAlertText = "I'm very concerned about you right now. Please know that you're not alone " +
		"and there are people who want to help."
	ledgerTimeout = 3 * time.Second
)

// EmergencyContacts is attached to every crisis alert.
var EmergencyContacts = []domain.EmergencyContact{
	{Name: "National Suicide Prevention Lifeline", Contact: "988", Availability: "24/7"},
	{Name: "Crisis Text Line", Contact: "Text HOME to 741741", Availability: "24/7"},
}

// escalate alerts the session, moves it to the crisis room and records a case.
// Only the alert and transfer frames depend on the connection; the ledger and
// event bus are best effort.
func (s *supportService) escalate(ctx context.Context, c *hub.Client, sess domain.Session, res classifier.Result) error {
	l := log.Ctx(ctx)
	from := sess.CurrentRoom
	to := s.cfg.CrisisRoom

	alert := domain.NewSystemAlert(from, crisisAlertText, EmergencyContacts, s.now().UTC())
	if from != "" {
		s.rooms.Append(from, alert)
	}
	if err := c.SendMessage(&domain.ChatMessageOut{Type: domain.MsgTypeCrisisAlert, Message: alert}); err != nil {
		return err
	}

	if from != to {
		s.moveTo(ctx, sess.ID, from, to)
		name := s.rooms.Catalog().Lookup(to).Name
		if err := c.SendMessage(&domain.RoomTransferMessage{
			Type:    domain.MsgTypeRoomTransfer,
			OldRoom: from,
			NewRoom: to,
			Message: s.notice(fmt.Sprintf("You've been moved to %s for specialized support.", name)),
		}); err != nil {
			return err
		}
	}

	l.Warn().
		Str("from_room", from).
		Str("to_room", to).
		Str("crisis_level", res.CrisisLevel).
		Str("crisis_type", res.CrisisType).
		Msg("crisis escalation")
	audit.LogWithDetail(ctx, audit.ActionEscalation, sess.ID, to, res.CrisisLevel, "session escalated to crisis room")

	caseID := s.recordCase(ctx, sess, from, to, res)
	s.events.CrisisEscalated(ctx, events.CrisisEscalatedPayload{
		CaseID:         caseID,
		SessionID:      sess.ID,
		AnonymousID:    sess.AnonymousID,
		FromRoom:       from,
		ToRoom:         to,
		CrisisLevel:    res.CrisisLevel,
		CrisisType:     res.CrisisType,
		PrimaryEmotion: res.PrimaryEmotion,
		Indicators:     res.Indicators,
	})
	return nil
}

// recordCase stores an open case and returns its id, or "" when the ledger
// is unavailable.
func (s *supportService) recordCase(ctx context.Context, sess domain.Session, from, to string, res classifier.Result) string {
	if s.cases == nil {
		return ""
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()

	c := &domain.EscalationCase{
		SessionID:      sess.ID,
		AnonymousID:    sess.AnonymousID,
		FromRoom:       from,
		ToRoom:         to,
		CrisisLevel:    res.CrisisLevel,
		PrimaryEmotion: res.PrimaryEmotion,
		Indicators:     res.Indicators,
	}
	if err := s.cases.Create(lctx, c); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to record escalation case")
		return ""
	}
	return c.ID
}
