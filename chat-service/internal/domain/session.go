package domain

import "time"

// SessionStatus is the lifecycle state of a connected session.
type SessionStatus string

const SessionConnected SessionStatus = "connected"

const anonymousPrefix = "anon_"

// Session is the per-connection identity. Values handed out by the session
// store are copies; mutate through the store.
type Session struct {
	ID           string        `json:"session_id"`
	AnonymousID  string        `json:"anonymous_id"`
	Status       SessionStatus `json:"status"`
	CurrentRoom  string        `json:"current_room,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActiveAt time.Time     `json:"last_active_at"`
}

func NewSession(id string, now time.Time) Session {
	return Session{
		ID:           id,
		AnonymousID:  AnonymousIDFor(id),
		Status:       SessionConnected,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// AnonymousIDFor derives the public handle shown to other room members.
func AnonymousIDFor(sessionID string) string {
	if len(sessionID) > 8 {
		sessionID = sessionID[:8]
	}
	return anonymousPrefix + sessionID
}

func (s Session) InRoom() bool {
	return s.CurrentRoom != ""
}
