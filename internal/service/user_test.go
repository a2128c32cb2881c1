package service

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

func TestUserService_GetUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	pmRepo := new(MockPaymentMethodRepository)
	svc := NewUserService(zap.NewNop(), userRepo, pmRepo)

	user := &model.User{ID: uuid.New(), FirstName: gofakeit.FirstName()}
	methods := []model.PaymentMethod{
		{ID: uuid.New(), UserID: user.ID, Name: gofakeit.Word()},
		{ID: uuid.New(), UserID: user.ID, Name: gofakeit.Word()},
	}

	userRepo.On("SelectUserByID", mock.Anything, mock.Anything, user.ID).Return(user, nil)
	pmRepo.On("SelectPaymentMethodsByUserID", mock.Anything, mock.Anything, user.ID).Return(methods, nil)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.FirstName, got.FirstName)
	assert.Len(t, got.PaymentMethods, 2)
}

func TestUserService_GetUserNotFound(t *testing.T) {
	userRepo := new(MockUserRepository)
	pmRepo := new(MockPaymentMethodRepository)
	svc := NewUserService(zap.NewNop(), userRepo, pmRepo)

	id := uuid.New()
	userRepo.On("SelectUserByID", mock.Anything, mock.Anything, id).Return(nil, apperrors.ErrUserDoesNotExist)

	_, err := svc.GetUser(context.Background(), id)
	require.ErrorIs(t, err, apperrors.ErrUserDoesNotExist)

	pmRepo.AssertNotCalled(t, "SelectPaymentMethodsByUserID", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_ListUsers(t *testing.T) {
	userRepo := new(MockUserRepository)
	pmRepo := new(MockPaymentMethodRepository)
	svc := NewUserService(zap.NewNop(), userRepo, pmRepo)

	first := &model.User{ID: uuid.New(), FirstName: gofakeit.FirstName()}
	second := &model.User{ID: uuid.New(), FirstName: gofakeit.FirstName()}

	userRepo.On("SelectUsers", mock.Anything, mock.Anything).Return([]*model.User{first, second}, nil)
	pmRepo.On("SelectPaymentMethodsByUserID", mock.Anything, mock.Anything, first.ID).
		Return([]model.PaymentMethod{{ID: uuid.New(), UserID: first.ID}}, nil)
	pmRepo.On("SelectPaymentMethodsByUserID", mock.Anything, mock.Anything, second.ID).
		Return(nil, errors.New("timeout"))

	_, err := svc.ListUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), second.ID.String())
}

func TestHealthService_IsOK(t *testing.T) {
	db := new(MockHealthRepository)
	cache := new(MockHealthRepository)
	broker := new(MockHealthRepository)

	svc := NewHealthService(zap.NewNop(),
		HealthCheck{Name: "database", Repo: db},
		HealthCheck{Name: "redis", Repo: cache},
		HealthCheck{Name: "kafka", Repo: broker},
	)

	db.On("Ping", mock.Anything).Return(nil)
	cache.On("Ping", mock.Anything).Return(nil).Once()
	broker.On("Ping", mock.Anything).Return(nil).Once()

	ok, err := svc.IsOK(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	cache.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	broker.On("Ping", mock.Anything).Return(errors.New("kafka: client has run out of available brokers")).Once()

	ok, err = svc.IsOK(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "redis is unreachable")
	assert.Contains(t, err.Error(), "kafka is unreachable")
	assert.NotContains(t, err.Error(), "database")

	db.AssertNumberOfCalls(t, "Ping", 2)
}
