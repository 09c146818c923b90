// Package usecase implements the user business logic and orchestrates user domain operations.
package usecase

import (
	"context"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/database"
	"github.com/lapsehq/lapse-auth/internal/user/domain"
	appValidation "github.com/lapsehq/lapse-auth/internal/validation"
)

// RegisterUserInput contains the input data for user registration
type RegisterUserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UseCase defines the interface for user business logic operations
type UseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserUseCase handles user-related business logic. Credential handling lives
// in a separate identity system; registration here only records the profile.
type UserUseCase struct {
	txManager database.TxManager
	userRepo  UserRepository
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(txManager database.TxManager, userRepo UserRepository) UseCase {
	return &UserUseCase{
		txManager: txManager,
		userRepo:  userRepo,
	}
}

// validateRegisterUserInput validates the registration input using jellydator/validation
func (uc *UserUseCase) validateRegisterUserInput(input RegisterUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser registers a new user
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := uc.validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:    uuid.Must(uuid.NewV7()),
		Name:  strings.TrimSpace(input.Name),
		Email: strings.TrimSpace(strings.ToLower(input.Email)),
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		return uc.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, email)
}

// GetUserByID retrieves a user by ID
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
