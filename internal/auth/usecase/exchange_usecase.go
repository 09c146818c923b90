package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/auth/service"
	"github.com/lapsehq/lapse-auth/internal/database"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/scope"
	"github.com/lapsehq/lapse-auth/internal/token"
)

// exchangeUseCase implements RFC 8693 token exchange: a service client trades
// a user's primary token for a short-lived delegated token, gated by the
// user's stored consent grant.
type exchangeUseCase struct {
	txManager     database.TxManager
	clientRepo    ServiceClientRepository
	grantRepo     ServiceGrantRepository
	auditRepo     TokenAuditRepository
	users         UserReader
	tokenIssuer   TokenIssuer
	secretService service.SecretService
	auditSigner   service.AuditSigner
	auditRootKey  []byte
	catalog       *scope.Catalog
	now           func() time.Time
}

// NewExchangeUseCase creates an ExchangeUseCase.
func NewExchangeUseCase(
	txManager database.TxManager,
	clientRepo ServiceClientRepository,
	grantRepo ServiceGrantRepository,
	auditRepo TokenAuditRepository,
	users UserReader,
	tokenIssuer TokenIssuer,
	secretService service.SecretService,
	auditSigner service.AuditSigner,
	auditRootKey []byte,
	catalog *scope.Catalog,
) ExchangeUseCase {
	return &exchangeUseCase{
		txManager:     txManager,
		clientRepo:    clientRepo,
		grantRepo:     grantRepo,
		auditRepo:     auditRepo,
		users:         users,
		tokenIssuer:   tokenIssuer,
		secretService: secretService,
		auditSigner:   auditSigner,
		auditRootKey:  auditRootKey,
		catalog:       catalog,
		now:           time.Now,
	}
}

// Exchange runs the gate sequence. Gates fire in a fixed order so a caller
// cannot use error codes to probe state behind a gate it has not passed:
// protocol shape, client authentication, subject token type, requested
// scope, client scope policy, subject token, subject user, grant, final
// scope set.
func (e *exchangeUseCase) Exchange(ctx context.Context, input domain.ExchangeInput) (*domain.ExchangeOutput, error) {
	if input.GrantType != domain.GrantTypeTokenExchange {
		return nil, domain.InvalidRequest("unsupported grant_type %q", input.GrantType)
	}

	client, err := e.authenticateClient(ctx, input.ClientID, input.ClientSecret)
	if err != nil {
		return nil, err
	}

	if !domain.AcceptedSubjectTokenType(input.SubjectTokenType) {
		return nil, domain.InvalidRequest("unsupported subject_token_type %q", input.SubjectTokenType)
	}

	requested, hadDuplicates := scope.SplitAndNormalize(input.Scope)
	if hadDuplicates {
		return nil, domain.InvalidRequest("duplicate values in scope")
	}
	if unknown := e.catalog.Unknown(requested); len(unknown) > 0 {
		return nil, domain.InvalidScope("unknown scope %q", unknown[0])
	}
	if !scope.Subset(requested, client.AllowedScopes) {
		return nil, domain.AccessDenied("client is not allowed the requested scope")
	}

	if input.SubjectToken == "" {
		return nil, domain.InvalidRequest("subject_token is required")
	}
	// A token that carries delegation markers is never accepted as a
	// subject token, even if its signature would verify as primary.
	if e.tokenIssuer.LooksDelegated(input.SubjectToken) {
		return nil, domain.InvalidRequest("subject_token is a delegated token")
	}
	subject, err := e.tokenIssuer.VerifyPrimary(input.SubjectToken)
	if err != nil {
		return nil, domain.InvalidRequest("subject_token is invalid or expired")
	}

	user, err := e.users.GetByID(ctx, subject.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.InvalidRequest("subject user no longer exists")
		}
		return nil, fmt.Errorf("get subject user: %w", err)
	}

	grant, err := e.grantRepo.GetActive(ctx, client.ID, user.ID)
	if err != nil {
		if apperrors.Is(err, domain.ErrGrantNotFound) {
			return nil, domain.AccessDenied("user has not granted access to this client")
		}
		return nil, fmt.Errorf("get active grant: %w", err)
	}

	final := grant.Scopes
	if len(requested) > 0 {
		final = scope.Intersect(requested, grant.Scopes)
	} else {
		// The grant may predate a narrowing of the client's policy.
		final = scope.Intersect(grant.Scopes, client.AllowedScopes)
	}
	if len(final) == 0 {
		return nil, domain.AccessDenied("no granted scopes remain for this request")
	}

	accessToken, err := e.tokenIssuer.IssueDelegated(user.ID, user.Email, client.ID, final, token.DelegatedTTL)
	if err != nil {
		return nil, fmt.Errorf("issue delegated token: %w", err)
	}

	now := e.now()
	audit := &domain.TokenAudit{
		ID:              uuid.Must(uuid.NewV7()),
		ServiceClientID: client.ID,
		ServiceGrantID:  grant.ID,
		UserID:          user.ID,
		Scope:           scope.Join(final),
		IPAddress:       input.IPAddress,
		UserAgent:       input.UserAgent,
		CreatedAt:       now,
	}
	signature, err := e.auditSigner.Sign(e.auditRootKey, audit)
	if err != nil {
		return nil, fmt.Errorf("sign token audit: %w", err)
	}
	audit.Signature = signature

	err = e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if txErr := e.auditRepo.Create(txCtx, audit); txErr != nil {
			return fmt.Errorf("create token audit: %w", txErr)
		}
		if txErr := e.grantRepo.TouchLastUsed(txCtx, grant.ID, now); txErr != nil {
			return fmt.Errorf("touch grant: %w", txErr)
		}
		if txErr := e.clientRepo.TouchLastUsed(txCtx, client.ID, now); txErr != nil {
			return fmt.Errorf("touch client: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.ExchangeOutput{
		AccessToken:     accessToken,
		IssuedTokenType: domain.TokenTypeAccessToken,
		TokenType:       "Bearer",
		ExpiresIn:       int64(token.DelegatedTTL / time.Second),
		Scope:           scope.Join(final),
		Audience:        token.DelegatedAudience,
		Issuer:          token.Issuer,
	}, nil
}

// authenticateClient resolves and authenticates the caller. Unknown client,
// bad secret, and revoked client all collapse to the same invalid_client
// answer so the endpoint does not leak registry state.
func (e *exchangeUseCase) authenticateClient(ctx context.Context, clientID, clientSecret string) (*domain.ServiceClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, domain.InvalidClient("client authentication required")
	}

	client, err := e.clientRepo.GetByClientID(ctx, clientID)
	if err != nil {
		if apperrors.Is(err, domain.ErrServiceClientNotFound) {
			return nil, domain.InvalidClient("client authentication failed")
		}
		return nil, fmt.Errorf("get service client: %w", err)
	}
	if !e.secretService.CompareSecret(clientSecret, client.SecretHash) {
		return nil, domain.InvalidClient("client authentication failed")
	}
	if !client.Active() {
		return nil, domain.InvalidClient("client is revoked")
	}
	return client, nil
}
