package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending       WithdrawalStatus = "PENDING"
	WithdrawalStatusProcessing    WithdrawalStatus = "PROCESSING"
	WithdrawalStatusSuccess       WithdrawalStatus = "SUCCESS"
	WithdrawalStatusFailed        WithdrawalStatus = "FAILED"
	WithdrawalStatusInternalError WithdrawalStatus = "INTERNAL_ERROR"
)

// CanTransitionTo reports whether a withdrawal may move from status to next.
// PROCESSING is left only through a provider settlement.
func (status WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	switch status {
	case WithdrawalStatusPending:
		return next == WithdrawalStatusProcessing ||
			next == WithdrawalStatusFailed ||
			next == WithdrawalStatusInternalError
	case WithdrawalStatusProcessing:
		return next == WithdrawalStatusSuccess || next == WithdrawalStatusFailed
	default:
		return false
	}
}

func (status WithdrawalStatus) IsTerminal() bool {
	switch status {
	case WithdrawalStatusSuccess, WithdrawalStatusFailed, WithdrawalStatusInternalError:
		return true
	default:
		return false
	}
}

func (status WithdrawalStatus) String() string {
	return string(status)
}

type WithdrawalKind string

const (
	WithdrawalKindImmediate WithdrawalKind = "IMMEDIATE"
	WithdrawalKindScheduled WithdrawalKind = "SCHEDULED"
)

func (kind WithdrawalKind) String() string {
	return string(kind)
}

// Withdrawal
// @Description Withdrawal processed as soon as a worker picks it up.
type Withdrawal struct {
	ID              uuid.UUID        `db:"id"                example:"b4b03119-1290-44bc-b599-6a5e91d6611f" json:"id"`                                    // Withdrawal ID
	Amount          decimal.Decimal  `db:"amount"            example:"100.00"                               json:"amount"          swaggertype:"string"` // Requested amount
	UserID          uuid.UUID        `db:"user_id"           example:"4e0f3a54-7b0c-4d8e-9d61-1a3f0d8c2b11" json:"userId"`                                // Owner
	PaymentMethodID uuid.UUID        `db:"payment_method_id" example:"0c9e5b7a-2d3f-4a61-8e4c-6b7d1f2e3a45" json:"paymentMethodId"`                       // Payment method to pay out to
	TransactionID   *string          `db:"transaction_id"    example:"1700000000000000000"                  json:"transactionId,omitempty"`               // Provider transaction, set after a successful submission
	Status          WithdrawalStatus `db:"status"            example:"PENDING"                              json:"status"`                                // Lifecycle status
	CreatedAt       time.Time        `db:"created_at"        example:"2006-01-02T15:04:05Z"                 json:"createdAt"       swaggertype:"string"` // Creation timestamp
} // @Name Withdrawal

// ScheduledWithdrawal
// @Description Withdrawal deferred until ExecuteAt.
type ScheduledWithdrawal struct {
	Withdrawal

	ExecuteAt time.Time `db:"execute_at" example:"2006-01-02T15:04:05Z" json:"executeAt" swaggertype:"string"` // Instant after which the withdrawal becomes due
} // @Name ScheduledWithdrawal

// WithdrawalView is a withdrawal of either kind as returned by the listing endpoints.
type WithdrawalView struct {
	Kind WithdrawalKind `json:"kind" example:"IMMEDIATE"`
	*Withdrawal
	ExecuteAt *time.Time `json:"executeAt,omitempty" swaggertype:"string"`
} // @Name WithdrawalView

// CreateWithdrawalRequest
// @Description ExecuteAt is either "ASAP" or an RFC3339 instant.
type CreateWithdrawalRequest struct {
	UserID          string `binding:"required,uuid" example:"4e0f3a54-7b0c-4d8e-9d61-1a3f0d8c2b11" json:"userId"`
	PaymentMethodID string `binding:"required,uuid" example:"0c9e5b7a-2d3f-4a61-8e4c-6b7d1f2e3a45" json:"paymentMethodId"`
	Amount          string `binding:"required"      example:"100.00"                               json:"amount"`
	ExecuteAt       string `binding:"required"      example:"ASAP"                                 json:"executeAt"`
} // @Name CreateWithdrawalRequest

const ExecuteAtASAP = "ASAP"

type WithdrawalIDPathParam struct {
	ID string `uri:"withdrawal_id" binding:"required,uuid" example:"b4b03119-1290-44bc-b599-6a5e91d6611f"`
}
