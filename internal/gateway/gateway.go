// Package gateway holds the payment provider integration used to submit withdrawals.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"withdrawal-service/internal/model"
)

// ErrTransactionRejected marks a terminal refusal by the provider.
var ErrTransactionRejected = errors.New("transaction rejected by provider")

// RejectionError is a business rejection. It matches ErrTransactionRejected with errors.Is.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTransactionRejected.Error(), e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return ErrTransactionRejected
}

func Reject(reason string) error {
	return &RejectionError{Reason: reason}
}

// IsRejection reports whether err is a business rejection rather than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrTransactionRejected)
}

type Config struct {
	// MaxAmount makes the simulated provider decline larger withdrawals. Zero disables the limit.
	MaxAmount decimal.Decimal
	Latency   time.Duration
}

// Simulated stands in for a real provider: it accepts any withdrawal up to
// MaxAmount and answers with a unique transaction id.
type Simulated struct {
	cfg Config
	seq atomic.Int64
}

func NewSimulated(cfg Config) *Simulated {
	return &Simulated{cfg: cfg}
}

func (s *Simulated) Send(ctx context.Context, amount decimal.Decimal, pm *model.PaymentMethod) (string, error) {
	if pm == nil {
		return "", Reject("payment method is required")
	}

	if !amount.IsPositive() {
		return "", Reject("amount must be positive")
	}

	if !s.cfg.MaxAmount.IsZero() && amount.GreaterThan(s.cfg.MaxAmount) {
		return "", Reject(fmt.Sprintf("amount %s exceeds provider limit %s", amount, s.cfg.MaxAmount))
	}

	if s.cfg.Latency > 0 {
		timer := time.NewTimer(s.cfg.Latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("provider call interrupted: %w", ctx.Err())
		case <-timer.C:
		}
	}

	id := time.Now().UnixNano() + s.seq.Add(1)

	return strconv.FormatInt(id, 10), nil
}
