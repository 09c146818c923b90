package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
)

// RunRevokeServiceClient disables a service client. Revocation blocks new
// consent requests and token exchanges immediately; outstanding delegated
// tokens expire on their own within minutes.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeServiceClient(
	ctx context.Context,
	clientUseCase authUseCase.ServiceClientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	clientID string,
) error {
	logger.Info("revoking service client", slog.String("client_id", clientID))

	if err := clientUseCase.Revoke(ctx, clientID); err != nil {
		return fmt.Errorf("failed to revoke service client: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Service client %s revoked.\n", clientID)

	logger.Info("service client revoked", slog.String("client_id", clientID))

	return nil
}
