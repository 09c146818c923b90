package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/auth/service"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/scope"
	appvalidation "github.com/lapsehq/lapse-auth/internal/validation"
)

// clientIDPrefix marks public client identifiers on the wire.
const clientIDPrefix = "lc_"

// serviceClientUseCase manages the client registry. All operations are
// reachable only through the CLI.
type serviceClientUseCase struct {
	clientRepo    ServiceClientRepository
	secretService service.SecretService
	catalog       *scope.Catalog
}

// NewServiceClientUseCase creates a ServiceClientUseCase.
func NewServiceClientUseCase(
	clientRepo ServiceClientRepository,
	secretService service.SecretService,
	catalog *scope.Catalog,
) ServiceClientUseCase {
	return &serviceClientUseCase{
		clientRepo:    clientRepo,
		secretService: secretService,
		catalog:       catalog,
	}
}

func (s *serviceClientUseCase) validateCreateInput(input *domain.CreateServiceClientInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&input.TrustLevel, validation.Required, validation.In(
			domain.TrustLevelUnverified, domain.TrustLevelVerified, domain.TrustLevelFirstParty,
		)),
		validation.Field(&input.AllowedScopes, validation.Required),
		validation.Field(&input.RedirectURIs, validation.Each(appvalidation.AbsoluteURL)),
	)
	if err != nil {
		return appvalidation.WrapValidationError(err)
	}

	normalized, hadDuplicates := scope.Normalize(input.AllowedScopes)
	if hadDuplicates {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "duplicate values in allowed scopes")
	}
	if len(normalized) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "allowed scopes must not be empty")
	}
	if unknown := s.catalog.Unknown(normalized); len(unknown) > 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown scope %q", unknown[0])
	}
	input.AllowedScopes = normalized
	return nil
}

func (s *serviceClientUseCase) Create(ctx context.Context, input *domain.CreateServiceClientInput) (*domain.CreateServiceClientOutput, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	clientID, err := generateClientID()
	if err != nil {
		return nil, fmt.Errorf("generate client id: %w", err)
	}
	plainSecret, hashedSecret, err := s.secretService.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	now := time.Now()
	client := &domain.ServiceClient{
		ID:            uuid.Must(uuid.NewV7()),
		ClientID:      clientID,
		SecretHash:    hashedSecret,
		Name:          input.Name,
		TrustLevel:    input.TrustLevel,
		AllowedScopes: input.AllowedScopes,
		RedirectURIs:  input.RedirectURIs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create service client: %w", err)
	}

	return &domain.CreateServiceClientOutput{
		ID:          client.ID,
		ClientID:    clientID,
		PlainSecret: plainSecret,
	}, nil
}

func (s *serviceClientUseCase) RotateSecret(ctx context.Context, clientID string) (*domain.RotateSecretOutput, error) {
	client, err := s.clientRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get service client: %w", err)
	}
	if !client.Active() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "cannot rotate secret of a revoked client")
	}

	plainSecret, hashedSecret, err := s.secretService.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	if err := s.clientRepo.UpdateSecretHash(ctx, clientID, hashedSecret); err != nil {
		return nil, fmt.Errorf("update secret hash: %w", err)
	}

	return &domain.RotateSecretOutput{
		ClientID:    clientID,
		PlainSecret: plainSecret,
	}, nil
}

func (s *serviceClientUseCase) Revoke(ctx context.Context, clientID string) error {
	if err := s.clientRepo.Revoke(ctx, clientID); err != nil {
		if apperrors.Is(err, domain.ErrServiceClientNotFound) {
			return err
		}
		return fmt.Errorf("revoke service client: %w", err)
	}
	return nil
}

// generateClientID produces a public client identifier with 16 random bytes
// of entropy.
func generateClientID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return clientIDPrefix + hex.EncodeToString(raw), nil
}
