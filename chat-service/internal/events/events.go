// Package events defines the lifecycle notifications published to the event bus.
package events

import "time"

// Event types.
const (
	TypeCrisisEscalated = "crisis.escalated"
	TypeRoomClosed      = "room.closed"
	TypeSessionEvicted  = "session.evicted"
)

// CrisisEscalatedPayload is published when a session is moved to the crisis room.
type CrisisEscalatedPayload struct {
	CaseID         string   `json:"case_id,omitempty"`
	SessionID      string   `json:"session_id"`
	AnonymousID    string   `json:"anonymous_id"`
	FromRoom       string   `json:"from_room,omitempty"`
	ToRoom         string   `json:"to_room"`
	CrisisLevel    string   `json:"crisis_level"`
	CrisisType     string   `json:"crisis_type,omitempty"`
	PrimaryEmotion string   `json:"primary_emotion,omitempty"`
	Indicators     []string `json:"indicators,omitempty"`
}

// RoomClosedPayload is published when the last member leaves a room.
type RoomClosedPayload struct {
	RoomID   string    `json:"room_id"`
	ClosedAt time.Time `json:"closed_at"`
}

// SessionEvictedPayload is published when the reaper drops an idle session.
type SessionEvictedPayload struct {
	SessionID    string    `json:"session_id"`
	AnonymousID  string    `json:"anonymous_id"`
	RoomID       string    `json:"room_id,omitempty"`
	LastActiveAt time.Time `json:"last_active_at"`
}
