package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	userDomain "github.com/lapsehq/lapse-auth/internal/user/domain"
	userUseCase "github.com/lapsehq/lapse-auth/internal/user/usecase"
)

type MockServiceClientUseCase struct {
	mock.Mock
}

func (m *MockServiceClientUseCase) Create(ctx context.Context, input *authDomain.CreateServiceClientInput) (*authDomain.CreateServiceClientOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateServiceClientOutput), args.Error(1)
}

func (m *MockServiceClientUseCase) RotateSecret(ctx context.Context, clientID string) (*authDomain.RotateSecretOutput, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.RotateSecretOutput), args.Error(1)
}

func (m *MockServiceClientUseCase) Revoke(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

type MockAuditUseCase struct {
	mock.Mock
}

func (m *MockAuditUseCase) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*authDomain.TokenAudit, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.TokenAudit), args.Error(1)
}

func (m *MockAuditUseCase) CleanOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) RegisterUser(ctx context.Context, input userUseCase.RegisterUserInput) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *MockUserUseCase) GetUserByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *MockUserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

type MockPrimaryIssuer struct {
	mock.Mock
}

func (m *MockPrimaryIssuer) IssuePrimary(userID uuid.UUID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}
