package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

// fakeTransactor fails on a done context the way pgx Begin does.
type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, ext repository.RepoExtension) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(ctx, nil)
}

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) InsertWithdrawal(ctx context.Context, ext repository.RepoExtension, w *model.Withdrawal) error {
	args := m.Called(ctx, ext, w)

	return args.Error(0)
}

func (m *MockWithdrawalRepository) SelectWithdrawalByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.Withdrawal, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) SelectWithdrawalByTransactionID(ctx context.Context, ext repository.RepoExtension, transactionID string) (*model.Withdrawal, error) {
	args := m.Called(ctx, ext, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) SelectWithdrawalsByStatus(ctx context.Context, ext repository.RepoExtension, status model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	args := m.Called(ctx, ext, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) SelectWithdrawals(ctx context.Context, ext repository.RepoExtension) ([]*model.Withdrawal, error) {
	args := m.Called(ctx, ext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateWithdrawalStatus(ctx context.Context, ext repository.RepoExtension, w *model.Withdrawal, from model.WithdrawalStatus) error {
	args := m.Called(ctx, ext, w, from)

	return args.Error(0)
}

type MockScheduledWithdrawalRepository struct {
	mock.Mock
}

func (m *MockScheduledWithdrawalRepository) InsertScheduledWithdrawal(ctx context.Context, ext repository.RepoExtension, w *model.ScheduledWithdrawal) error {
	args := m.Called(ctx, ext, w)

	return args.Error(0)
}

func (m *MockScheduledWithdrawalRepository) SelectScheduledWithdrawalByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.ScheduledWithdrawal, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.ScheduledWithdrawal), args.Error(1)
}

func (m *MockScheduledWithdrawalRepository) SelectScheduledWithdrawalByTransactionID(ctx context.Context, ext repository.RepoExtension, transactionID string) (*model.ScheduledWithdrawal, error) {
	args := m.Called(ctx, ext, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.ScheduledWithdrawal), args.Error(1)
}

func (m *MockScheduledWithdrawalRepository) SelectDueScheduledWithdrawals(ctx context.Context, ext repository.RepoExtension, now time.Time) ([]*model.ScheduledWithdrawal, error) {
	args := m.Called(ctx, ext, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.ScheduledWithdrawal), args.Error(1)
}

func (m *MockScheduledWithdrawalRepository) SelectScheduledWithdrawals(ctx context.Context, ext repository.RepoExtension) ([]*model.ScheduledWithdrawal, error) {
	args := m.Called(ctx, ext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.ScheduledWithdrawal), args.Error(1)
}

func (m *MockScheduledWithdrawalRepository) UpdateScheduledWithdrawalStatus(ctx context.Context, ext repository.RepoExtension, w *model.Withdrawal, from model.WithdrawalStatus) error {
	args := m.Called(ctx, ext, w, from)

	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SelectUserByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) SelectUsers(ctx context.Context, ext repository.RepoExtension) ([]*model.User, error) {
	args := m.Called(ctx, ext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.User), args.Error(1)
}

type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) SelectPaymentMethodByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.PaymentMethod, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) SelectPaymentMethodsByUserID(ctx context.Context, ext repository.RepoExtension, userID uuid.UUID) ([]model.PaymentMethod, error) {
	args := m.Called(ctx, ext, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]model.PaymentMethod), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Send(ctx context.Context, amount decimal.Decimal, pm *model.PaymentMethod) (string, error) {
	args := m.Called(ctx, amount, pm)

	return args.String(0), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) InsertEvent(ctx context.Context, ext repository.RepoExtension, event *model.OutboxEvent) error {
	args := m.Called(ctx, ext, event)

	return args.Error(0)
}

func (m *MockOutboxRepository) SelectEventsByWithdrawalID(ctx context.Context, ext repository.RepoExtension, withdrawalID uuid.UUID) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, ext, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.OutboxEvent), args.Error(1)
}

type MockInboxRepository struct {
	mock.Mock
}

func (m *MockInboxRepository) InsertMessage(ctx context.Context, ext repository.RepoExtension, message model.InboxMessage) error {
	args := m.Called(ctx, ext, message)

	return args.Error(0)
}

func (m *MockInboxRepository) UpdateAsProcessed(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error {
	args := m.Called(ctx, ext, messageID)

	return args.Error(0)
}

type MockHealthRepository struct {
	mock.Mock
}

func (m *MockHealthRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
