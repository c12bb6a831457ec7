package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/audit"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/classifier"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/events"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/hub"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/registry"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/repository"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/room"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/session"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

const welcomeText = "Welcome to the anonymous support chat. This is a safe, private space where you can " +
	"share your feelings and receive support."

type supportService struct {
	hub        *hub.Hub
	sessions   *session.Store
	rooms      *room.Registry
	classifier classifier.Classifier
	directory  registry.Registry
	events     *events.Emitter
	cases      repository.EscalationRepository
	cfg        config.RoomConfig
	now        func() time.Time
}

func NewSupportService(
	h *hub.Hub,
	sessions *session.Store,
	rooms *room.Registry,
	clf classifier.Classifier,
	directory registry.Registry,
	emitter *events.Emitter,
	cases repository.EscalationRepository,
	cfg config.RoomConfig,
) SupportService {
	if directory == nil {
		directory = registry.NopRegistry{}
	}
	if emitter == nil {
		emitter = events.NewEmitter(nil)
	}
	if cfg.CrisisRoom == "" {
		cfg.CrisisRoom = room.CrisisIntervention
	}
	if cfg.FallbackRoom == "" {
		cfg.FallbackRoom = room.GeneralSupport
	}
	return &supportService{
		hub:        h,
		sessions:   sessions,
		rooms:      rooms,
		classifier: clf,
		directory:  directory,
		events:     emitter,
		cases:      cases,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (s *supportService) OpenSession(ctx context.Context) domain.Session {
	sess := s.sessions.Open()
	audit.Log(ctx, audit.ActionSessionOpen, sess.ID, "session opened")
	return sess
}

func (s *supportService) HandleConnect(ctx context.Context, c *hub.Client) error {
	return c.SendMessage(&domain.SessionInitializedMessage{
		Type:        domain.MsgTypeSessionInitialized,
		SessionID:   c.ID,
		AnonymousID: c.AnonymousID,
		Message:     s.notice(welcomeText),
	})
}

func (s *supportService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return ErrEmptyRoomID
	}
	sess, ok := s.sessions.Get(c.ID)
	if !ok {
		return ErrSessionNotFound
	}

	target := roomID
	if target != sess.CurrentRoom && target != s.cfg.CrisisRoom && s.rooms.IsFull(target) {
		target = s.cfg.FallbackRoom
		audit.LogWithDetail(ctx, audit.ActionRoomRedirect, sess.ID, target, roomID, "room full, redirected to fallback room")
	}

	s.moveTo(ctx, sess.ID, sess.CurrentRoom, target)
	audit.LogWithTarget(ctx, audit.ActionJoinRoom, sess.ID, target, "joined room")

	info := s.rooms.Describe(target)
	if err := c.SendMessage(&domain.RoomJoinedMessage{
		Type:    domain.MsgTypeRoomJoined,
		RoomID:  target,
		Message: s.notice(fmt.Sprintf("Welcome to %s! This is a safe space for support.", info.Name)),
	}); err != nil {
		return err
	}
	return c.SendMessage(&domain.RoomInfoMessage{
		Type: domain.MsgTypeRoomInfo,
		Room: info,
	})
}

func (s *supportService) HandleUserMessage(ctx context.Context, c *hub.Client, in domain.UserMessageIn) error {
	l := log.Ctx(ctx)

	text := strings.TrimSpace(in.Text())
	if text == "" {
		l.Debug().Msg("blank user message ignored")
		return nil
	}
	sess, ok := s.sessions.Get(c.ID)
	if !ok {
		return ErrSessionNotFound
	}

	roomID := sess.CurrentRoom
	if in.RoomID != "" && in.RoomID != roomID {
		l.Warn().Str(log.FieldRoomID, in.RoomID).Str("current_room", roomID).Msg("user message room does not match current room, using current room")
	}

	if roomID != "" {
		msg := domain.NewUserMessage(sess, roomID, text, s.now().UTC())
		s.publish(ctx, roomID, domain.MsgTypeUserMessage, msg, c.ID)
	}

	res, err := s.classifier.Classify(ctx, text, classifier.Context{SessionID: sess.ID, RoomID: roomID})
	if err != nil {
		l.Warn().Err(err).Msg("classification failed, using fallback reply")
		res = classifier.Fallback()
	}

	// The connection may have gone away while we were waiting.
	if c.Closed() || ctx.Err() != nil {
		l.Debug().Msg("session closed during classification, reply discarded")
		return nil
	}
	sess, ok = s.sessions.Get(c.ID)
	if !ok {
		l.Debug().Msg("session closed during classification, reply discarded")
		return nil
	}

	reply := domain.NewAIMessage(sess.CurrentRoom, res.Reply, s.now().UTC())
	reply.Resources = res.Resources
	reply.RoomSuggestions = res.SuggestedRooms
	reply.FollowUpQuestions = res.FollowUpQuestions
	reply.CrisisAlert = res.RequiresEscalation
	if sess.CurrentRoom != "" {
		s.rooms.Append(sess.CurrentRoom, reply)
	}
	if err := c.SendMessage(&domain.ChatMessageOut{Type: domain.MsgTypeAIMessage, Message: reply}); err != nil {
		return err
	}

	l.Info().
		Str(log.FieldRoomID, sess.CurrentRoom).
		Str("emotion", res.PrimaryEmotion).
		Str("crisis_level", res.CrisisLevel).
		Bool("fallback", res.Fallback).
		Msg("user message processed")

	if res.RequiresEscalation {
		return s.escalate(ctx, c, sess, res)
	}
	return nil
}

func (s *supportService) HandleLeaveRoom(ctx context.Context, c *hub.Client, roomID string) error {
	sess, ok := s.sessions.Get(c.ID)
	if !ok {
		return ErrSessionNotFound
	}

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		roomID = sess.CurrentRoom
	}
	if roomID != "" && roomID == sess.CurrentRoom {
		s.leaveRoom(ctx, sess.ID, roomID)
		s.sessions.SetRoom(sess.ID, "")
		audit.LogWithTarget(ctx, audit.ActionLeaveRoom, sess.ID, roomID, "left room")
	}

	name := "the room"
	if roomID != "" {
		name = s.rooms.Catalog().Lookup(roomID).Name
	}
	return c.SendMessage(&domain.RoomLeftMessage{
		Type:    domain.MsgTypeRoomLeft,
		RoomID:  roomID,
		Message: s.notice(fmt.Sprintf("You have left %s.", name)),
	})
}

func (s *supportService) HandlePing(ctx context.Context, c *hub.Client) error {
	return c.SendMessage(&domain.PongMessage{Type: domain.MsgTypePong})
}

func (s *supportService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	if sess, ok := s.cleanup(ctx, c.ID); ok {
		audit.LogWithTarget(ctx, audit.ActionSessionClose, sess.ID, sess.CurrentRoom, "session closed")
	}
}

func (s *supportService) Touch(sessionID string) {
	s.sessions.Touch(sessionID)
}

func (s *supportService) IdleSince(threshold time.Time) []string {
	return s.sessions.IdleSince(threshold)
}

// Evict runs disconnect cleanup for a session still idle since before
// threshold and drops its connection without notifying the client.
func (s *supportService) Evict(ctx context.Context, sessionID string, threshold time.Time) bool {
	sess, ok := s.sessions.CloseIfIdle(sessionID, threshold)
	if !ok {
		return false
	}
	s.release(ctx, sess)
	s.hub.Disconnect(sessionID)

	audit.LogWithTarget(ctx, audit.ActionEviction, sess.ID, sess.CurrentRoom, "idle session evicted")
	s.events.SessionEvicted(ctx, events.SessionEvictedPayload{
		SessionID:    sess.ID,
		AnonymousID:  sess.AnonymousID,
		RoomID:       sess.CurrentRoom,
		LastActiveAt: sess.LastActiveAt,
	})
	return true
}

// DescribeRoom merges the catalog entry with live occupancy and, when the room
// directory knows it, the instance hosting the room.
func (s *supportService) DescribeRoom(ctx context.Context, roomID string) domain.RoomInfo {
	info := s.rooms.Describe(roomID)

	addr, err := s.directory.Lookup(ctx, roomID)
	switch {
	case err == nil:
		info.Instance = addr
	case !errors.Is(err, registry.ErrRoomNotRegistered):
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to look up room in directory")
	}
	return info
}

func (s *supportService) Stats() domain.Stats {
	snapshot := s.rooms.Snapshot()
	total := 0
	for _, st := range snapshot {
		total += st.Messages
	}
	return domain.Stats{
		ActiveSessions:   s.sessions.Count(),
		ConnectedClients: s.hub.ClientCount(),
		ActiveRooms:      len(snapshot),
		TotalMessages:    total,
		Rooms:            snapshot,
		Timestamp:        s.now().UTC(),
	}
}

func (s *supportService) Start(ctx context.Context) error {
	if err := s.directory.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start registry heartbeat: %w", err)
	}
	l := log.L()
	l.Info().Str("crisis_room", s.cfg.CrisisRoom).Str("fallback_room", s.cfg.FallbackRoom).Msg("support service started")
	return nil
}

func (s *supportService) Stop() error {
	s.directory.StopHeartbeat()
	return nil
}

// cleanup closes the session and takes it out of its room. Only the first
// caller for a given session sees ok.
func (s *supportService) cleanup(ctx context.Context, sessionID string) (domain.Session, bool) {
	sess, ok := s.sessions.Close(sessionID)
	if !ok {
		return domain.Session{}, false
	}
	s.release(ctx, sess)
	return sess, true
}

// release takes a closed session out of its room.
func (s *supportService) release(ctx context.Context, sess domain.Session) {
	if sess.CurrentRoom != "" {
		s.leaveRoom(ctx, sess.ID, sess.CurrentRoom)
	}
}

// moveTo leaves from (if set and different) and joins to.
func (s *supportService) moveTo(ctx context.Context, sessionID, from, to string) {
	if from != "" && from != to {
		s.leaveRoom(ctx, sessionID, from)
	}
	if s.rooms.Join(to, sessionID) {
		s.roomOpened(ctx, to)
	}
	s.sessions.SetRoom(sessionID, to)

	// Evicted between the join and the pointer update: undo the join.
	if _, ok := s.sessions.Get(sessionID); !ok {
		s.leaveRoom(ctx, sessionID, to)
	}
}

func (s *supportService) leaveRoom(ctx context.Context, sessionID, roomID string) {
	if s.rooms.Leave(roomID, sessionID) {
		s.roomClosed(ctx, roomID)
	}
}

func (s *supportService) roomOpened(ctx context.Context, roomID string) {
	if err := s.directory.Register(ctx, roomID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to register room in directory")
	}
}

func (s *supportService) roomClosed(ctx context.Context, roomID string) {
	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldRoomID, roomID).Msg("room closed")

	if err := s.directory.Deregister(ctx, roomID); err != nil {
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to deregister room from directory")
	}
	// Someone may have recreated the room while we were deregistering.
	if s.rooms.Exists(roomID) {
		s.roomOpened(ctx, roomID)
		return
	}
	s.events.RoomClosed(ctx, roomID)
}

// publish appends msg to the room history and delivers it to every member
// except exclude, in history order.
func (s *supportService) publish(ctx context.Context, roomID, msgType string, msg domain.Message, exclude string) {
	data, err := json.Marshal(&domain.ChatMessageOut{Type: msgType, Message: msg})
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldMessageType, msgType).Msg("failed to encode message")
		return
	}
	s.rooms.Publish(roomID, msg, func(members []string) {
		s.hub.BroadcastRaw(members, data, exclude)
	})
}

func (s *supportService) notice(text string) domain.Notice {
	return domain.Notice{Content: text, Timestamp: s.now().UTC()}
}
