package service

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/audit"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/repository"
)

type caseService struct {
	repo repository.EscalationRepository
}

func NewCaseService(repo repository.EscalationRepository) CaseService {
	return &caseService{repo: repo}
}

func (s *caseService) ListCases(ctx context.Context, status domain.CaseStatus) ([]domain.EscalationCase, error) {
	switch status {
	case "", domain.CaseOpen, domain.CaseResolved:
	default:
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, status, 0)
}

func (s *caseService) ResolveCase(ctx context.Context, id, operatorID string) (*domain.EscalationCase, error) {
	c, err := s.repo.Resolve(ctx, id, operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	audit.LogWithTarget(ctx, audit.ActionCaseResolved, operatorID, id, "escalation case resolved")
	return c, nil
}
