package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/hub"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/service"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.SupportService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.SupportService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The request context ends with this handler; the connection outlives it.
	sess := h.service.OpenSession(log.WithLogger(context.Background(), log.Ctx(r.Context())))
	client := hub.NewClient(sess.ID, sess.AnonymousID, h.hub, conn, h.wsCfg)
	ctx := log.WithSession(log.WithLogger(client.Context(), log.Ctx(r.Context())), sess.ID, sess.AnonymousID)

	h.hub.Register(client)
	go client.WritePump()

	if err := h.service.HandleConnect(ctx, client); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to send welcome")
	}

	go client.ReadPump(
		func(c *hub.Client, message []byte) { h.handleMessage(ctx, c, message) },
		// Cleanup must still reach the directory after the connection context is gone.
		func(c *hub.Client) { h.service.HandleDisconnect(context.WithoutCancel(ctx), c) },
	)
}

// handleMessage records activity before anything else so even malformed
// frames keep the session alive.
func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	h.service.Touch(client.ID)

	l := log.Ctx(ctx)
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		l.Warn().Err(err).Int("bytes", len(message)).Msg("malformed frame dropped")
		return
	}

	var err error
	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldMessageType, base.Type).Msg("malformed frame dropped")
			return
		}
		err = h.service.HandleJoinRoom(ctx, client, msg.RoomID)

	case domain.MsgTypeUserMessage:
		var msg domain.UserMessageIn
		if err := json.Unmarshal(message, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldMessageType, base.Type).Msg("malformed frame dropped")
			return
		}
		err = h.service.HandleUserMessage(ctx, client, msg)

	case domain.MsgTypeLeaveRoom:
		var msg domain.LeaveRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldMessageType, base.Type).Msg("malformed frame dropped")
			return
		}
		err = h.service.HandleLeaveRoom(ctx, client, msg.RoomID)

	case domain.MsgTypePing:
		err = h.service.HandlePing(ctx, client)

	default:
		l.Warn().Str(log.FieldMessageType, base.Type).Msg("unknown frame type dropped")
		return
	}

	if err != nil {
		l.Warn().Err(err).Str(log.FieldMessageType, base.Type).Msg("frame handling failed")
	}
}
