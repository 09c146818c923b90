package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/auth/service"
	"github.com/lapsehq/lapse-auth/internal/database"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/scope"
	"github.com/lapsehq/lapse-auth/internal/token"
)

// consentUseCase implements the consent state machine. Init and Decide share
// the same request validation; Decide additionally persists the grant and
// mints a delegated token.
type consentUseCase struct {
	txManager    database.TxManager
	clientRepo   ServiceClientRepository
	grantRepo    ServiceGrantRepository
	auditRepo    TokenAuditRepository
	tokenIssuer  TokenIssuer
	auditSigner  service.AuditSigner
	auditRootKey []byte
	catalog      *scope.Catalog
	now          func() time.Time
}

// NewConsentUseCase creates a ConsentUseCase.
func NewConsentUseCase(
	txManager database.TxManager,
	clientRepo ServiceClientRepository,
	grantRepo ServiceGrantRepository,
	auditRepo TokenAuditRepository,
	tokenIssuer TokenIssuer,
	auditSigner service.AuditSigner,
	auditRootKey []byte,
	catalog *scope.Catalog,
) ConsentUseCase {
	return &consentUseCase{
		txManager:    txManager,
		clientRepo:   clientRepo,
		grantRepo:    grantRepo,
		auditRepo:    auditRepo,
		tokenIssuer:  tokenIssuer,
		auditSigner:  auditSigner,
		auditRootKey: auditRootKey,
		catalog:      catalog,
		now:          time.Now,
	}
}

// validateRequest runs the shared consent checks and resolves the client.
// Check order matters: cheap shape checks first, then the client lookup,
// then redirect URI membership.
func (c *consentUseCase) validateRequest(ctx context.Context, req authRequest) (*domain.ServiceClient, []string, error) {
	if len(req.State) > domain.MaxStateLength {
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "state exceeds %d characters", domain.MaxStateLength)
	}

	requested, hadDuplicates := scope.Normalize(req.Scopes)
	if hadDuplicates {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "duplicate scopes in request")
	}
	if unknown := c.catalog.Unknown(requested); len(unknown) > 0 {
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown scope %q", unknown[0])
	}

	client, err := c.clientRepo.GetByClientID(ctx, req.ClientID)
	if err != nil {
		if apperrors.Is(err, domain.ErrServiceClientNotFound) {
			return nil, nil, apperrors.Wrap(apperrors.ErrNotFound, "service client not found")
		}
		return nil, nil, fmt.Errorf("get service client: %w", err)
	}
	if !client.Active() {
		return nil, nil, apperrors.Wrap(apperrors.ErrNotFound, "service client not found")
	}

	if req.RedirectURI == "" {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "redirect_uri is required")
	}
	if !client.AllowsRedirectURI(req.RedirectURI) {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "redirect_uri is not registered for this client")
	}

	// Catch policy overreach before the consent screen rather than at the
	// Decide-time intersection.
	if !scope.Subset(requested, client.AllowedScopes) {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "requested scope is not allowed for this client")
	}

	return client, requested, nil
}

// authRequest is the shared shape of ConsentRequest and ConsentDecision.
type authRequest struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	State       string
}

func (c *consentUseCase) Init(ctx context.Context, req domain.ConsentRequest) (*domain.ConsentResult, error) {
	client, requested, err := c.validateRequest(ctx, authRequest{
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scopes:      req.Scopes,
		State:       req.State,
	})
	if err != nil {
		return nil, err
	}

	grant, err := c.grantRepo.GetActive(ctx, client.ID, req.UserID)
	if err != nil && !apperrors.Is(err, domain.ErrGrantNotFound) {
		return nil, fmt.Errorf("get active grant: %w", err)
	}

	if grant != nil {
		// An active grant short-circuits the consent screen. The stored
		// scopes must still be valid against the current catalog.
		stored, hadDuplicates := scope.Normalize(grant.Scopes)
		if hadDuplicates || len(stored) == 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "stored grant scopes are invalid")
		}
		if unknown := c.catalog.Unknown(stored); len(unknown) > 0 {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "stored grant scope %q is no longer valid", unknown[0])
		}
		return c.issueForGrant(ctx, domain.ConsentAutoReissue, client, grant, stored, req.UserID, req.Email, req.RedirectURI, req.State)
	}

	return &domain.ConsentResult{
		State: domain.ConsentAwaitingDecision,
		Client: &domain.ClientSummary{
			ClientID:        client.ClientID,
			Name:            client.Name,
			TrustLevel:      client.TrustLevel,
			RequestedScopes: requested,
			AllowedScopes:   client.AllowedScopes,
		},
	}, nil
}

func (c *consentUseCase) Decide(ctx context.Context, decision domain.ConsentDecision) (*domain.ConsentResult, error) {
	client, requested, err := c.validateRequest(ctx, authRequest{
		ClientID:    decision.ClientID,
		RedirectURI: decision.RedirectURI,
		Scopes:      decision.Scopes,
		State:       decision.State,
	})
	if err != nil {
		return nil, err
	}

	if !decision.Consent {
		redirectURL, err := buildRedirectURL(decision.RedirectURI, url.Values{
			"error": {"access_denied"},
		}, decision.State)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "redirect_uri is not a valid URL")
		}
		return &domain.ConsentResult{
			State:       domain.ConsentDenied,
			RedirectURL: redirectURL,
		}, nil
	}

	final := client.AllowedScopes
	if len(requested) > 0 {
		final = scope.Intersect(requested, client.AllowedScopes)
	}
	if len(final) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no requested scopes are allowed for this client")
	}

	var grant *domain.ServiceGrant
	err = c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		grant, txErr = c.grantRepo.Upsert(txCtx, domain.UpsertGrantInput{
			ServiceClientID: client.ID,
			UserID:          decision.UserID,
			Scopes:          final,
		})
		if txErr != nil {
			return fmt.Errorf("upsert grant: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.issueForGrant(ctx, domain.ConsentApproved, client, grant, final, decision.UserID, decision.Email, decision.RedirectURI, decision.State)
}

// issueForGrant mints the delegated token, records the audit row, and builds
// the callback redirect. Shared by the AUTO_REISSUE and APPROVED outcomes.
func (c *consentUseCase) issueForGrant(
	ctx context.Context,
	state domain.ConsentState,
	client *domain.ServiceClient,
	grant *domain.ServiceGrant,
	scopes []string,
	userID uuid.UUID,
	email string,
	redirectURI string,
	reqState string,
) (*domain.ConsentResult, error) {
	accessToken, err := c.tokenIssuer.IssueDelegated(userID, email, client.ID, scopes, token.DelegatedTTL)
	if err != nil {
		return nil, fmt.Errorf("issue delegated token: %w", err)
	}

	now := c.now()
	audit := &domain.TokenAudit{
		ID:              uuid.Must(uuid.NewV7()),
		ServiceClientID: client.ID,
		ServiceGrantID:  grant.ID,
		UserID:          userID,
		Scope:           scope.Join(scopes),
		CreatedAt:       now,
	}
	signature, err := c.auditSigner.Sign(c.auditRootKey, audit)
	if err != nil {
		return nil, fmt.Errorf("sign token audit: %w", err)
	}
	audit.Signature = signature

	err = c.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if txErr := c.auditRepo.Create(txCtx, audit); txErr != nil {
			return fmt.Errorf("create token audit: %w", txErr)
		}
		if txErr := c.grantRepo.TouchLastUsed(txCtx, grant.ID, now); txErr != nil {
			return fmt.Errorf("touch grant: %w", txErr)
		}
		if txErr := c.clientRepo.TouchLastUsed(txCtx, client.ID, now); txErr != nil {
			return fmt.Errorf("touch client: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	expiresIn := int64(token.DelegatedTTL / time.Second)
	redirectURL, err := buildRedirectURL(redirectURI, url.Values{
		"access_token": {accessToken},
		"token_type":   {"Bearer"},
		"expires_in":   {strconv.FormatInt(expiresIn, 10)},
		"scope":        {scope.Join(scopes)},
		"grant_id":     {grant.ID.String()},
	}, reqState)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "redirect_uri is not a valid URL")
	}

	return &domain.ConsentResult{
		State:       state,
		RedirectURL: redirectURL,
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		Scope:       scope.Join(scopes),
		GrantID:     grant.ID,
	}, nil
}

// buildRedirectURL appends params to the redirect URI, preserving any query
// it already carries. State is echoed back only when the caller sent one.
func buildRedirectURL(redirectURI string, params url.Values, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
