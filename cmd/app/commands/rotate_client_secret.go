package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
)

// RunRotateClientSecret replaces a service client's secret. Delegated tokens
// already issued stay valid; only future exchanges need the new secret.
//
// Requirements: Database must be migrated and accessible.
func RunRotateClientSecret(
	ctx context.Context,
	clientUseCase authUseCase.ServiceClientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	clientID string,
	format string,
) error {
	logger.Info("rotating service client secret", slog.String("client_id", clientID))

	output, err := clientUseCase.RotateSecret(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to rotate client secret: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]string{
			"client_id": output.ClientID,
			"secret":    output.PlainSecret,
		})
	} else {
		_, _ = fmt.Fprintln(writer, "\nSecret rotated successfully!")
		_, _ = fmt.Fprintf(writer, "Client ID: %s\n", output.ClientID)
		_, _ = fmt.Fprintf(writer, "New secret: %s\n", output.PlainSecret)
		_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The secret is shown only once. Store it securely.")
	}

	logger.Info("service client secret rotated", slog.String("client_id", clientID))

	return nil
}
