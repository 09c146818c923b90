package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	userUseCase "github.com/lapsehq/lapse-auth/internal/user/usecase"
)

// RunRegisterUser records a new delegating user profile.
//
// Requirements: Database must be migrated and accessible.
func RunRegisterUser(
	ctx context.Context,
	useCase userUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	email string,
	format string,
) error {
	logger.Info("registering user", slog.String("email", email))

	user, err := useCase.RegisterUser(ctx, userUseCase.RegisterUserInput{
		Name:  name,
		Email: email,
	})
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]string{
			"id":    user.ID.String(),
			"name":  user.Name,
			"email": user.Email,
		})
	} else {
		_, _ = fmt.Fprintln(writer, "User registered successfully!")
		_, _ = fmt.Fprintf(writer, "ID: %s\n", user.ID.String())
		_, _ = fmt.Fprintf(writer, "Name: %s\n", user.Name)
		_, _ = fmt.Fprintf(writer, "Email: %s\n", user.Email)
	}

	logger.Info("user registered", slog.String("user_id", user.ID.String()))

	return nil
}
