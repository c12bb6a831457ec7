package domain

import (
	"time"

	"github.com/weiawesome/wes-support-chat/pkg/database"
)

// EscalationCaseModel is the GORM model for the escalation_cases table.
type EscalationCaseModel struct {
	ID             string               `gorm:"type:varchar(36);primaryKey"`
	SessionID      string               `gorm:"type:varchar(36);index;not null"`
	AnonymousID    string               `gorm:"type:varchar(20);not null"`
	FromRoom       string               `gorm:"type:varchar(100)"`
	ToRoom         string               `gorm:"type:varchar(100);not null"`
	CrisisLevel    string               `gorm:"type:varchar(20);not null"`
	PrimaryEmotion string               `gorm:"type:varchar(30)"`
	Indicators     database.StringArray `gorm:"type:text"`
	Status         string               `gorm:"type:varchar(20);index;not null;default:'open'"`
	ResolvedBy     string               `gorm:"type:varchar(100)"`
	CreatedAt      time.Time            `gorm:"autoCreateTime"`
	ResolvedAt     *time.Time
}

// TableName specifies the table name for EscalationCaseModel.
func (EscalationCaseModel) TableName() string {
	return "escalation_cases"
}

// ToDomain converts EscalationCaseModel to domain EscalationCase.
func (m *EscalationCaseModel) ToDomain() *EscalationCase {
	return &EscalationCase{
		ID:             m.ID,
		SessionID:      m.SessionID,
		AnonymousID:    m.AnonymousID,
		FromRoom:       m.FromRoom,
		ToRoom:         m.ToRoom,
		CrisisLevel:    m.CrisisLevel,
		PrimaryEmotion: m.PrimaryEmotion,
		Indicators:     []string(m.Indicators),
		Status:         CaseStatus(m.Status),
		ResolvedBy:     m.ResolvedBy,
		CreatedAt:      m.CreatedAt,
		ResolvedAt:     m.ResolvedAt,
	}
}

// EscalationCaseToModel converts domain EscalationCase to EscalationCaseModel.
func EscalationCaseToModel(c *EscalationCase) *EscalationCaseModel {
	return &EscalationCaseModel{
		ID:             c.ID,
		SessionID:      c.SessionID,
		AnonymousID:    c.AnonymousID,
		FromRoom:       c.FromRoom,
		ToRoom:         c.ToRoom,
		CrisisLevel:    c.CrisisLevel,
		PrimaryEmotion: c.PrimaryEmotion,
		Indicators:     database.StringArray(c.Indicators),
		Status:         string(c.Status),
		ResolvedBy:     c.ResolvedBy,
		CreatedAt:      c.CreatedAt,
		ResolvedAt:     c.ResolvedAt,
	}
}
