package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/metrics"
)

// consentUseCaseWithMetrics decorates ConsentUseCase with metrics instrumentation.
type consentUseCaseWithMetrics struct {
	next    ConsentUseCase
	metrics metrics.BusinessMetrics
}

// NewConsentUseCaseWithMetrics wraps a ConsentUseCase with metrics recording.
func NewConsentUseCaseWithMetrics(useCase ConsentUseCase, m metrics.BusinessMetrics) ConsentUseCase {
	return &consentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Init records metrics for consent initiation.
func (c *consentUseCaseWithMetrics) Init(
	ctx context.Context,
	req authDomain.ConsentRequest,
) (*authDomain.ConsentResult, error) {
	start := time.Now()
	result, err := c.next.Init(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "auth", "consent_init", status)
	c.metrics.RecordDuration(ctx, "auth", "consent_init", time.Since(start), status)

	return result, err
}

// Decide records metrics for consent decisions.
func (c *consentUseCaseWithMetrics) Decide(
	ctx context.Context,
	decision authDomain.ConsentDecision,
) (*authDomain.ConsentResult, error) {
	start := time.Now()
	result, err := c.next.Decide(ctx, decision)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "auth", "consent_decide", status)
	c.metrics.RecordDuration(ctx, "auth", "consent_decide", time.Since(start), status)

	return result, err
}

// exchangeUseCaseWithMetrics decorates ExchangeUseCase with metrics instrumentation.
type exchangeUseCaseWithMetrics struct {
	next    ExchangeUseCase
	metrics metrics.BusinessMetrics
}

// NewExchangeUseCaseWithMetrics wraps an ExchangeUseCase with metrics recording.
func NewExchangeUseCaseWithMetrics(useCase ExchangeUseCase, m metrics.BusinessMetrics) ExchangeUseCase {
	return &exchangeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Exchange records metrics for token exchange operations.
func (e *exchangeUseCaseWithMetrics) Exchange(
	ctx context.Context,
	input authDomain.ExchangeInput,
) (*authDomain.ExchangeOutput, error) {
	start := time.Now()
	output, err := e.next.Exchange(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "auth", "token_exchange", status)
	e.metrics.RecordDuration(ctx, "auth", "token_exchange", time.Since(start), status)

	return output, err
}

// grantUseCaseWithMetrics decorates GrantUseCase with metrics instrumentation.
type grantUseCaseWithMetrics struct {
	next    GrantUseCase
	metrics metrics.BusinessMetrics
}

// NewGrantUseCaseWithMetrics wraps a GrantUseCase with metrics recording.
func NewGrantUseCaseWithMetrics(useCase GrantUseCase, m metrics.BusinessMetrics) GrantUseCase {
	return &grantUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// ListActive records metrics for grant listing.
func (g *grantUseCaseWithMetrics) ListActive(
	ctx context.Context,
	userID uuid.UUID,
) ([]*authDomain.GrantWithClient, error) {
	start := time.Now()
	grants, err := g.next.ListActive(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	g.metrics.RecordOperation(ctx, "auth", "grant_list", status)
	g.metrics.RecordDuration(ctx, "auth", "grant_list", time.Since(start), status)

	return grants, err
}

// Revoke records metrics for grant revocation.
func (g *grantUseCaseWithMetrics) Revoke(ctx context.Context, grantID, userID uuid.UUID) error {
	start := time.Now()
	err := g.next.Revoke(ctx, grantID, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	g.metrics.RecordOperation(ctx, "auth", "grant_revoke", status)
	g.metrics.RecordDuration(ctx, "auth", "grant_revoke", time.Since(start), status)

	return err
}
