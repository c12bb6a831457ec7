package domain

import "time"

// CaseStatus tracks human follow-up of a crisis escalation.
type CaseStatus string

const (
	CaseOpen     CaseStatus = "open"
	CaseResolved CaseStatus = "resolved"
)

// EscalationCase records one crisis transfer for on-call staff.
type EscalationCase struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"session_id"`
	AnonymousID    string     `json:"anonymous_id"`
	FromRoom       string     `json:"from_room,omitempty"`
	ToRoom         string     `json:"to_room"`
	CrisisLevel    string     `json:"crisis_level"`
	PrimaryEmotion string     `json:"primary_emotion,omitempty"`
	Indicators     []string   `json:"indicators,omitempty"`
	Status         CaseStatus `json:"status"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}
