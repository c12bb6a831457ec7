package domain

import "time"

// WebSocket message types from client.
const (
	MsgTypeJoinRoom    = "join_room"
	MsgTypeUserMessage = "user_message"
	MsgTypeLeaveRoom   = "leave_room"
	MsgTypePing        = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeSessionInitialized = "session_initialized"
	MsgTypeRoomJoined         = "room_joined"
	MsgTypeRoomInfo           = "room_info"
	MsgTypeRoomLeft           = "room_left"
	MsgTypeAIMessage          = "ai_message"
	MsgTypeCrisisAlert        = "crisis_alert"
	MsgTypeRoomTransfer       = "room_transfer"
	MsgTypePong               = "pong"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type UserMessageIn struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Message string `json:"message"` // legacy clients
	RoomID  string `json:"room_id"`
}

// Text returns the message body, preferring content over the legacy field.
func (m UserMessageIn) Text() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Message
}

type LeaveRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// Server -> Client messages

// Notice is a short human readable text attached to acknowledgements.
type Notice struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionInitializedMessage struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	AnonymousID string `json:"anonymous_id"`
	Message     Notice `json:"message"`
}

type RoomJoinedMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Message Notice `json:"message"`
}

type RoomInfoMessage struct {
	Type string   `json:"type"`
	Room RoomInfo `json:"room"`
}

type RoomLeftMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Message Notice `json:"message"`
}

// ChatMessageOut carries a history message: user_message, ai_message or crisis_alert.
type ChatMessageOut struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

type RoomTransferMessage struct {
	Type    string `json:"type"`
	OldRoom string `json:"old_room,omitempty"`
	NewRoom string `json:"new_room"`
	Message Notice `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"`
}
