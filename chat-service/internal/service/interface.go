package service

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/hub"
)

var (
	ErrEmptyRoomID     = errors.New("room id is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrCaseNotFound    = errors.New("escalation case not found")
	ErrInvalidStatus   = errors.New("invalid case status")
)

// SupportService coordinates sessions, rooms and replies for live connections.
// Handle* methods are called from the connection's read goroutine, one frame
// at a time.
type SupportService interface {
	OpenSession(ctx context.Context) domain.Session
	HandleConnect(ctx context.Context, client *hub.Client) error
	HandleJoinRoom(ctx context.Context, client *hub.Client, roomID string) error
	HandleUserMessage(ctx context.Context, client *hub.Client, msg domain.UserMessageIn) error
	HandleLeaveRoom(ctx context.Context, client *hub.Client, roomID string) error
	HandlePing(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client)

	Touch(sessionID string)
	IdleSince(threshold time.Time) []string
	Evict(ctx context.Context, sessionID string, threshold time.Time) bool

	DescribeRoom(ctx context.Context, roomID string) domain.RoomInfo
	Stats() domain.Stats

	Start(ctx context.Context) error
	Stop() error
}

// CaseService gives operators access to the crisis case ledger.
type CaseService interface {
	ListCases(ctx context.Context, status domain.CaseStatus) ([]domain.EscalationCase, error)
	ResolveCase(ctx context.Context, id, operatorID string) (*domain.EscalationCase, error)
}
