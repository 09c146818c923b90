package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
)

// RunCleanTokenAudits deletes token audit rows older than the specified
// number of days.
//
// Requirements: Database must be migrated and accessible.
func RunCleanTokenAudits(
	ctx context.Context,
	auditUseCase authUseCase.AuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	if days <= 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning token audits", slog.Int("days", days))

	retention := time.Duration(days) * 24 * time.Hour
	count, err := auditUseCase.CleanOlderThan(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to clean token audits: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"deleted": count,
			"days":    days,
		})
	} else {
		_, _ = fmt.Fprintf(writer, "Deleted %d token audit rows older than %d days.\n", count, days)
	}

	logger.Info("token audit cleanup completed", slog.Int64("count", count))

	return nil
}
