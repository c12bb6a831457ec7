package domain

import (
	"time"

	"github.com/google/uuid"
)

// SenderRole identifies who produced a message.
type SenderRole string

const (
	RoleUser   SenderRole = "user"
	RoleAI     SenderRole = "ai"
	RoleSystem SenderRole = "system"
)

// SystemSender stands in for the session id on system generated messages.
const SystemSender = "system"

// Resource is a support link or hotline attached to a reply.
type Resource struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description,omitempty"`
}

// EmergencyContact is a crisis line included in safety alerts.
type EmergencyContact struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Availability string `json:"available"`
}

// Message is immutable once appended to a room history.
type Message struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	AnonymousID string     `json:"anonymous_id,omitempty"`
	RoomID      string     `json:"room_id,omitempty"`
	Role        SenderRole `json:"role"`
	Content     string     `json:"content"`
	Timestamp   time.Time  `json:"timestamp"`

	// Populated on ai replies.
	Resources         []Resource `json:"resources,omitempty"`
	RoomSuggestions   []string   `json:"room_suggestions,omitempty"`
	FollowUpQuestions []string   `json:"follow_up_questions,omitempty"`
	CrisisAlert       bool       `json:"crisis_alert,omitempty"`

	// Populated on system alerts.
	EmergencyContacts []EmergencyContact `json:"emergency_resources,omitempty"`
}

func NewUserMessage(s Session, roomID, content string, now time.Time) Message {
	return Message{
		ID:          uuid.New().String(),
		SessionID:   s.ID,
		AnonymousID: s.AnonymousID,
		RoomID:      roomID,
		Role:        RoleUser,
		Content:     content,
		Timestamp:   now,
	}
}

func NewAIMessage(roomID, content string, now time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		SessionID: SystemSender,
		RoomID:    roomID,
		Role:      RoleAI,
		Content:   content,
		Timestamp: now,
	}
}

func NewSystemAlert(roomID, content string, contacts []EmergencyContact, now time.Time) Message {
	return Message{
		ID:                uuid.New().String(),
		SessionID:         SystemSender,
		RoomID:            roomID,
		Role:              RoleSystem,
		Content:           content,
		Timestamp:         now,
		CrisisAlert:       true,
		EmergencyContacts: append([]EmergencyContact(nil), contacts...),
	}
}
