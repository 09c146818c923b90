package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/auth/domain"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

type grantUseCase struct {
	grantRepo ServiceGrantRepository
}

// NewGrantUseCase creates a GrantUseCase.
func NewGrantUseCase(grantRepo ServiceGrantRepository) GrantUseCase {
	return &grantUseCase{grantRepo: grantRepo}
}

func (g *grantUseCase) ListActive(ctx context.Context, userID uuid.UUID) ([]*domain.GrantWithClient, error) {
	grants, err := g.grantRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active grants: %w", err)
	}
	return grants, nil
}

// Revoke revokes a grant owned by userID. Revoking someone else's grant and
// revoking a nonexistent grant are indistinguishable to the caller.
func (g *grantUseCase) Revoke(ctx context.Context, grantID, userID uuid.UUID) error {
	if err := g.grantRepo.Revoke(ctx, grantID, userID); err != nil {
		if apperrors.Is(err, domain.ErrGrantNotFound) {
			return err
		}
		return fmt.Errorf("revoke grant: %w", err)
	}
	return nil
}
