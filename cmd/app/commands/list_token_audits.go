package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
)

// RunListTokenAudits prints the most recent token issuance records for a user.
//
// Requirements: Database must be migrated and accessible.
func RunListTokenAudits(
	ctx context.Context,
	auditUseCase authUseCase.AuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	rawUserID string,
	limit int,
	format string,
) error {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	audits, err := auditUseCase.ListByUser(ctx, userID, limit)
	if err != nil {
		return fmt.Errorf("failed to list token audits: %w", err)
	}

	if format == "json" {
		rows := make([]map[string]any, 0, len(audits))
		for _, audit := range audits {
			rows = append(rows, map[string]any{
				"id":                audit.ID.String(),
				"service_client_id": audit.ServiceClientID.String(),
				"service_grant_id":  audit.ServiceGrantID.String(),
				"scope":             audit.Scope,
				"ip_address":        audit.IPAddress,
				"user_agent":        audit.UserAgent,
				"created_at":        audit.CreatedAt,
			})
		}
		writeJSON(writer, rows)
	} else {
		if len(audits) == 0 {
			_, _ = fmt.Fprintln(writer, "No token audits found.")
		}
		for _, audit := range audits {
			_, _ = fmt.Fprintf(
				writer,
				"%s  client=%s  scope=%q  ip=%s\n",
				audit.CreatedAt.Format("2006-01-02 15:04:05"),
				audit.ServiceClientID.String(),
				audit.Scope,
				audit.IPAddress,
			)
		}
	}

	logger.Info("token audits listed",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(audits)),
	)

	return nil
}
