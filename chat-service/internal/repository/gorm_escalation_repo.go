package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

const defaultListLimit = 100

// GormEscalationRepository implements EscalationRepository using GORM.
type GormEscalationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormEscalationRepository(db *gorm.DB) *GormEscalationRepository {
	return &GormEscalationRepository{db: db, now: time.Now}
}

// Create stores c as an open case, assigning an id if it has none.
func (r *GormEscalationRepository) Create(ctx context.Context, c *domain.EscalationCase) error {
	l := log.Ctx(ctx)

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Status = domain.CaseOpen
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now().UTC()
	}

	model := domain.EscalationCaseToModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldSessionID, c.SessionID).Msg("failed to create escalation case")
		return err
	}
	c.CreatedAt = model.CreatedAt

	l.Debug().Str("case_id", c.ID).Msg("escalation case created")
	return nil
}

func (r *GormEscalationRepository) GetByID(ctx context.Context, id string) (*domain.EscalationCase, error) {
	var model domain.EscalationCaseModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str("case_id", id).Msg("failed to get escalation case")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List returns cases newest first. An empty status returns every case.
func (r *GormEscalationRepository) List(ctx context.Context, status domain.CaseStatus, limit int) ([]domain.EscalationCase, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := r.db.WithContext(ctx).Model(&domain.EscalationCaseModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var models []domain.EscalationCaseModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list escalation cases")
		return nil, err
	}

	cases := make([]domain.EscalationCase, len(models))
	for i, model := range models {
		cases[i] = *model.ToDomain()
	}
	return cases, nil
}

// Resolve closes an open case. Resolving an already resolved case returns
// it unchanged.
func (r *GormEscalationRepository) Resolve(ctx context.Context, id, resolvedBy string) (*domain.EscalationCase, error) {
	l := log.Ctx(ctx)

	now := r.now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.EscalationCaseModel{}).
		Where("id = ? AND status = ?", id, string(domain.CaseOpen)).
		Updates(map[string]interface{}{
			"status":      string(domain.CaseResolved),
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str("case_id", id).Msg("failed to resolve escalation case")
		return nil, result.Error
	}

	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected > 0 {
		l.Debug().Str("case_id", id).Str("resolved_by", resolvedBy).Msg("escalation case resolved")
	}
	return c, nil
}
