package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/token"
)

// MockConsentUseCase is a mock implementation of usecase.ConsentUseCase
type MockConsentUseCase struct {
	mock.Mock
}

func (m *MockConsentUseCase) Init(ctx context.Context, req authDomain.ConsentRequest) (*authDomain.ConsentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ConsentResult), args.Error(1)
}

func (m *MockConsentUseCase) Decide(ctx context.Context, decision authDomain.ConsentDecision) (*authDomain.ConsentResult, error) {
	args := m.Called(ctx, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ConsentResult), args.Error(1)
}

// MockExchangeUseCase is a mock implementation of usecase.ExchangeUseCase
type MockExchangeUseCase struct {
	mock.Mock
}

func (m *MockExchangeUseCase) Exchange(ctx context.Context, input authDomain.ExchangeInput) (*authDomain.ExchangeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.ExchangeOutput), args.Error(1)
}

// MockGrantUseCase is a mock implementation of usecase.GrantUseCase
type MockGrantUseCase struct {
	mock.Mock
}

func (m *MockGrantUseCase) ListActive(ctx context.Context, userID uuid.UUID) ([]*authDomain.GrantWithClient, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.GrantWithClient), args.Error(1)
}

func (m *MockGrantUseCase) Revoke(ctx context.Context, grantID, userID uuid.UUID) error {
	args := m.Called(ctx, grantID, userID)
	return args.Error(0)
}

// MockTokenVerifier is a mock implementation of TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) VerifyPrimary(raw string) (*token.PrimaryPayload, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.PrimaryPayload), args.Error(1)
}

func (m *MockTokenVerifier) VerifyDelegated(raw string) (*token.DelegatedPayload, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.DelegatedPayload), args.Error(1)
}

func (m *MockTokenVerifier) LooksDelegated(raw string) bool {
	args := m.Called(raw)
	return args.Bool(0)
}
