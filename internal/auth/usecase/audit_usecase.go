package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/auth/domain"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

const defaultAuditListLimit = 50

type auditUseCase struct {
	auditRepo TokenAuditRepository
	now       func() time.Time
}

// NewAuditUseCase creates an AuditUseCase.
func NewAuditUseCase(auditRepo TokenAuditRepository) AuditUseCase {
	return &auditUseCase{auditRepo: auditRepo, now: time.Now}
}

func (a *auditUseCase) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.TokenAudit, error) {
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	audits, err := a.auditRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list token audits: %w", err)
	}
	return audits, nil
}

func (a *auditUseCase) CleanOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "retention must be positive")
	}
	deleted, err := a.auditRepo.DeleteOlderThan(ctx, a.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("delete token audits: %w", err)
	}
	return deleted, nil
}
