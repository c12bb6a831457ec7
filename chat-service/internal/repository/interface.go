package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
)

var (
	ErrCaseNotFound = errors.New("escalation case not found")
)

// EscalationRepository persists crisis cases for human follow-up.
type EscalationRepository interface {
	Create(ctx context.Context, c *domain.EscalationCase) error
	GetByID(ctx context.Context, id string) (*domain.EscalationCase, error)
	List(ctx context.Context, status domain.CaseStatus, limit int) ([]domain.EscalationCase, error)
	Resolve(ctx context.Context, id, resolvedBy string) (*domain.EscalationCase, error)
}
