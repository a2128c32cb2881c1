package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

type MockPaymentMethodSource struct {
	mock.Mock
}

func (m *MockPaymentMethodSource) SelectPaymentMethodByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.PaymentMethod, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.PaymentMethod), args.Error(1)
}

func newTestCache(t *testing.T) (*PaymentMethodCache, *MockPaymentMethodSource, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	source := new(MockPaymentMethodSource)

	return NewPaymentMethodCache(zap.NewNop(), rdb, source, time.Minute), source, mr
}

func TestPaymentMethodCache_ReadThrough(t *testing.T) {
	cache, source, mr := newTestCache(t)

	pm := &model.PaymentMethod{ID: uuid.New(), UserID: uuid.New(), Name: "card"}
	source.On("SelectPaymentMethodByID", mock.Anything, mock.Anything, pm.ID).Return(pm, nil).Once()

	got, err := cache.SelectPaymentMethodByID(context.Background(), nil, pm.ID)
	require.NoError(t, err)
	assert.Equal(t, pm, got)

	assert.True(t, mr.Exists(paymentMethodKeyPrefix+pm.ID.String()))
	assert.Equal(t, time.Minute, mr.TTL(paymentMethodKeyPrefix+pm.ID.String()))

	cached, err := cache.SelectPaymentMethodByID(context.Background(), nil, pm.ID)
	require.NoError(t, err)
	assert.Equal(t, pm, cached)

	source.AssertNumberOfCalls(t, "SelectPaymentMethodByID", 1)
}

func TestPaymentMethodCache_MissIsNotCached(t *testing.T) {
	cache, source, mr := newTestCache(t)

	id := uuid.New()
	source.On("SelectPaymentMethodByID", mock.Anything, mock.Anything, id).
		Return(nil, apperrors.ErrPaymentMethodDoesNotExist)

	_, err := cache.SelectPaymentMethodByID(context.Background(), nil, id)
	require.ErrorIs(t, err, apperrors.ErrPaymentMethodDoesNotExist)

	assert.False(t, mr.Exists(paymentMethodKeyPrefix+id.String()))
}

func TestPaymentMethodCache_MalformedEntry(t *testing.T) {
	cache, source, mr := newTestCache(t)

	pm := &model.PaymentMethod{ID: uuid.New(), UserID: uuid.New(), Name: "card"}
	require.NoError(t, mr.Set(paymentMethodKeyPrefix+pm.ID.String(), "{broken"))

	source.On("SelectPaymentMethodByID", mock.Anything, mock.Anything, pm.ID).Return(pm, nil).Once()

	got, err := cache.SelectPaymentMethodByID(context.Background(), nil, pm.ID)
	require.NoError(t, err)
	assert.Equal(t, pm, got)
}

func TestPaymentMethodCache_RedisDown(t *testing.T) {
	cache, source, mr := newTestCache(t)

	mr.Close()

	pm := &model.PaymentMethod{ID: uuid.New(), UserID: uuid.New(), Name: "card"}
	source.On("SelectPaymentMethodByID", mock.Anything, mock.Anything, pm.ID).Return(pm, nil).Twice()

	for i := 0; i < 2; i++ {
		got, err := cache.SelectPaymentMethodByID(context.Background(), nil, pm.ID)
		require.NoError(t, err)
		assert.Equal(t, pm, got)
	}

	source.AssertExpectations(t)
}
