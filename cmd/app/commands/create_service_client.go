package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
)

// RunCreateServiceClient registers a new service client and prints its
// credentials. The plain secret appears in the output exactly once and cannot
// be recovered later.
//
// Requirements: Database must be migrated and accessible.
func RunCreateServiceClient(
	ctx context.Context,
	clientUseCase authUseCase.ServiceClientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	trustLevel string,
	scopes string,
	redirectURIs []string,
	format string,
) error {
	logger.Info("creating service client", slog.String("name", name))

	input := &authDomain.CreateServiceClientInput{
		Name:          name,
		TrustLevel:    authDomain.TrustLevel(trustLevel),
		AllowedScopes: strings.Fields(scopes),
		RedirectURIs:  redirectURIs,
	}

	output, err := clientUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]string{
			"id":        output.ID.String(),
			"client_id": output.ClientID,
			"secret":    output.PlainSecret,
		})
	} else {
		_, _ = fmt.Fprintln(writer, "\nService client created successfully!")
		_, _ = fmt.Fprintf(writer, "ID: %s\n", output.ID.String())
		_, _ = fmt.Fprintf(writer, "Client ID: %s\n", output.ClientID)
		_, _ = fmt.Fprintf(writer, "Secret: %s\n", output.PlainSecret)
		_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The secret is shown only once. Store it securely.")
	}

	logger.Info("service client created successfully",
		slog.String("client_id", output.ClientID),
		slog.String("name", name),
	)

	return nil
}
