package apperrors

import (
	"errors"
)

var (
	ErrShutdown = errors.New("shutdown error")

	ErrWithdrawalDoesNotExist     = errors.New("withdrawal does not exist")
	ErrWithdrawalStateConflict    = errors.New("withdrawal status changed concurrently")
	ErrWithdrawalTransitionDenied = errors.New("withdrawal status transition is not allowed")
	ErrAmountExceedsLimit         = errors.New("amount exceeds user withdrawal limit")
	ErrInvalidAmount              = errors.New("amount must be positive")
	ErrInvalidExecuteAt           = errors.New("execute at must be ASAP or an RFC3339 instant")

	ErrUserDoesNotExist          = errors.New("user does not exist")
	ErrPaymentMethodDoesNotExist = errors.New("payment method does not exist")
	ErrPaymentMethodNotOwned     = errors.New("payment method does not belong to user")

	ErrOutboxEventStateConflict    = errors.New("outbox event status changed concurrently")
	ErrOutboxEventTransitionDenied = errors.New("outbox event status transition is not allowed")

	ErrInboxMessageDuplicate = errors.New("inbox message already processed")
	ErrUnknownChannel        = errors.New("unknown outbox channel")
)
