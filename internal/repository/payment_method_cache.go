package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"withdrawal-service/internal/model"
)

const paymentMethodKeyPrefix = "withdrawal:payment_method:"

type PaymentMethodSource interface {
	SelectPaymentMethodByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.PaymentMethod, error)
}

// PaymentMethodCache is a read-through Redis cache in front of a PaymentMethodSource.
// Redis failures degrade to reading the source.
type PaymentMethodCache struct {
	log    *zap.Logger
	rdb    redis.Cmdable
	source PaymentMethodSource
	ttl    time.Duration
}

type cachedPaymentMethod struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
}

func NewPaymentMethodCache(log *zap.Logger, rdb redis.Cmdable, source PaymentMethodSource, ttl time.Duration) *PaymentMethodCache {
	return &PaymentMethodCache{
		log:    log,
		rdb:    rdb,
		source: source,
		ttl:    ttl,
	}
}

func (c *PaymentMethodCache) SelectPaymentMethodByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.PaymentMethod, error) {
	key := paymentMethodKeyPrefix + id.String()

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedPaymentMethod
		if uErr := json.Unmarshal(raw, &cached); uErr == nil {
			return &model.PaymentMethod{ID: cached.ID, UserID: cached.UserID, Name: cached.Name}, nil
		}

		c.log.Warn("Dropping malformed cached payment method", zap.String("payment_method_id", id.String()))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("Payment method cache read failed", zap.String("payment_method_id", id.String()), zap.Error(err))
	}

	pm, err := c.source.SelectPaymentMethodByID(ctx, ext, id)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, pm); err != nil {
		c.log.Warn("Payment method cache write failed", zap.String("payment_method_id", id.String()), zap.Error(err))
	}

	return pm, nil
}

func (c *PaymentMethodCache) store(ctx context.Context, key string, pm *model.PaymentMethod) error {
	data, err := json.Marshal(cachedPaymentMethod{ID: pm.ID, UserID: pm.UserID, Name: pm.Name})
	if err != nil {
		return fmt.Errorf("failed to marshal payment method: %w", err)
	}

	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}
