package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"withdrawal-service/internal/model"
)

type Provider interface {
	Send(ctx context.Context, amount decimal.Decimal, pm *model.PaymentMethod) (string, error)
}

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Breaker trips after consecutive infrastructure failures of the wrapped provider.
// Business rejections count as successful calls and are passed through untouched.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

func NewBreaker(log *zap.Logger, cfg BreakerConfig, provider Provider) *Breaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRejection(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Gateway circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *Breaker) Send(ctx context.Context, amount decimal.Decimal, pm *model.PaymentMethod) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.provider.Send(ctx, amount, pm)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("gateway unavailable: %w", err)
		}

		return "", err
	}

	transactionID, _ := result.(string)

	return transactionID, nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
