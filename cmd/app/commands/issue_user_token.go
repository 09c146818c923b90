package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/token"
	userUseCase "github.com/lapsehq/lapse-auth/internal/user/usecase"
)

// PrimaryIssuer is the slice of the token service this command depends on.
type PrimaryIssuer interface {
	IssuePrimary(userID uuid.UUID, email string) (string, error)
}

// RunIssueUserToken mints a primary token for an existing user, looked up by
// email. Primary tokens normally come from the login flow; this command
// exists for development and operational tooling.
//
// Requirements: Database must be migrated and accessible.
func RunIssueUserToken(
	ctx context.Context,
	users userUseCase.UseCase,
	issuer PrimaryIssuer,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	format string,
) error {
	logger.Info("issuing primary token", slog.String("email", email))

	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	signed, err := issuer.IssuePrimary(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"user_id":    user.ID.String(),
			"token":      signed,
			"expires_in": int64(token.PrimaryTTL.Seconds()),
		})
	} else {
		_, _ = fmt.Fprintf(writer, "Token for %s (valid %s):\n%s\n", user.Email, token.PrimaryTTL, signed)
	}

	logger.Info("primary token issued", slog.String("user_id", user.ID.String()))

	return nil
}
