package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusSent       EventStatus = "SENT"
	EventStatusFailed     EventStatus = "FAILED"
)

// CanTransitionTo reports whether an outbox event may move from status to next.
// FAILED may only be re-claimed while it is still under the retry ceiling,
// which the caller checks with OutboxEvent.RetryEligible.
func (status EventStatus) CanTransitionTo(next EventStatus) bool {
	switch status {
	case EventStatusPending, EventStatusFailed:
		return next == EventStatusProcessing
	case EventStatusProcessing:
		return next == EventStatusSent || next == EventStatusPending || next == EventStatusFailed
	default:
		return false
	}
}

func (status EventStatus) String() string {
	return string(status)
}

// OutboxEvent is a snapshot of a withdrawal status change waiting to be delivered.
type OutboxEvent struct {
	ID              uuid.UUID        `db:"id"                example:"7d2a9c4e-5b1f-4e8a-9c3d-2f6b8a1e4d70" json:"id"`                                         // Event ID
	WithdrawalID    uuid.UUID        `db:"withdrawal_id"     example:"b4b03119-1290-44bc-b599-6a5e91d6611f" json:"withdrawalId"`                               // Withdrawal the event belongs to
	WithdrawalKind  WithdrawalKind   `db:"withdrawal_kind"   example:"IMMEDIATE"                            json:"withdrawalKind"`                             // IMMEDIATE or SCHEDULED
	Status          WithdrawalStatus `db:"status"            example:"PROCESSING"                           json:"status"`                                     // Withdrawal status at the time of the change
	Amount          decimal.Decimal  `db:"amount"            example:"100.00"                               json:"amount"          swaggertype:"string"`       // Withdrawal amount
	TransactionID   *string          `db:"transaction_id"    example:"1700000000000000000"                  json:"transactionId,omitempty"`                    // Provider transaction, if any
	UserID          uuid.UUID        `db:"user_id"           example:"4e0f3a54-7b0c-4d8e-9d61-1a3f0d8c2b11" json:"userId"`                                     // Owner
	PaymentMethodID uuid.UUID        `db:"payment_method_id" example:"0c9e5b7a-2d3f-4a61-8e4c-6b7d1f2e3a45" json:"paymentMethodId"`                            // Payment method
	EventStatus     EventStatus      `db:"event_status"      example:"SENT"                                 json:"eventStatus"`                                // Delivery status
	CreatedAt       time.Time        `db:"created_at"        example:"2006-01-02T15:04:05Z"                 json:"createdAt"       swaggertype:"string"`       // When the change was recorded
	UpdatedAt       time.Time        `db:"updated_at"        example:"2006-01-02T15:04:05Z"                 json:"updatedAt"       swaggertype:"string"`       // Last delivery state change
	ProcessedAt     *time.Time       `db:"processed_at"      example:"2006-01-02T15:04:05Z"                 json:"processedAt,omitempty" swaggertype:"string"` // When the event was delivered
	RetryCount      int              `db:"retry_count"       example:"0"                                    json:"retryCount"`                                 // Failed delivery attempts
	LastError       *string          `db:"last_error"                                                       json:"lastError,omitempty"`                        // Last delivery error
}

// NewOutboxEvent snapshots the current in-memory state of w.
func NewOutboxEvent(kind WithdrawalKind, w *Withdrawal, now time.Time) *OutboxEvent {
	var transactionID *string
	if w.TransactionID != nil {
		id := *w.TransactionID
		transactionID = &id
	}

	return &OutboxEvent{
		ID:              uuid.New(),
		WithdrawalID:    w.ID,
		WithdrawalKind:  kind,
		Status:          w.Status,
		Amount:          w.Amount,
		TransactionID:   transactionID,
		UserID:          w.UserID,
		PaymentMethodID: w.PaymentMethodID,
		EventStatus:     EventStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (e *OutboxEvent) IsTerminal() bool {
	return e.EventStatus == EventStatusSent || e.EventStatus == EventStatusFailed
}

// RetryEligible reports whether the dispatcher may attempt delivery of e.
func (e *OutboxEvent) RetryEligible(maxRetries int) bool {
	switch e.EventStatus {
	case EventStatusPending:
		return true
	case EventStatusFailed:
		return e.RetryCount < maxRetries
	default:
		return false
	}
}

func (e *OutboxEvent) MarkProcessing(now time.Time) bool {
	if !e.EventStatus.CanTransitionTo(EventStatusProcessing) {
		return false
	}

	e.EventStatus = EventStatusProcessing
	e.UpdatedAt = now

	return true
}

func (e *OutboxEvent) MarkSent(now time.Time) bool {
	if !e.EventStatus.CanTransitionTo(EventStatusSent) {
		return false
	}

	e.EventStatus = EventStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now

	return true
}

// RegisterFailure counts one failed delivery attempt. The event goes back to
// PENDING while RetryCount stays under maxRetries and becomes FAILED otherwise.
func (e *OutboxEvent) RegisterFailure(reason string, maxRetries int, now time.Time) bool {
	if e.EventStatus != EventStatusProcessing {
		return false
	}

	e.RetryCount++
	e.LastError = &reason
	e.UpdatedAt = now

	if e.RetryCount >= maxRetries {
		e.EventStatus = EventStatusFailed
		e.ProcessedAt = &now

		return true
	}

	e.EventStatus = EventStatusPending

	return true
}

// WithdrawalEventMessage is the payload delivered to downstream consumers.
type WithdrawalEventMessage struct {
	EventID         uuid.UUID        `json:"eventId"`
	WithdrawalID    uuid.UUID        `json:"withdrawalId"`
	WithdrawalKind  WithdrawalKind   `json:"withdrawalKind"`
	Status          WithdrawalStatus `json:"status"`
	Amount          decimal.Decimal  `json:"amount"`
	TransactionID   *string          `json:"transactionId,omitempty"`
	UserID          uuid.UUID        `json:"userId"`
	PaymentMethodID uuid.UUID        `json:"paymentMethodId"`
	CreatedAt       time.Time        `json:"createdAt"`
}

func (e *OutboxEvent) Message() WithdrawalEventMessage {
	return WithdrawalEventMessage{
		EventID:         e.ID,
		WithdrawalID:    e.WithdrawalID,
		WithdrawalKind:  e.WithdrawalKind,
		Status:          e.Status,
		Amount:          e.Amount,
		TransactionID:   e.TransactionID,
		UserID:          e.UserID,
		PaymentMethodID: e.PaymentMethodID,
		CreatedAt:       e.CreatedAt,
	}
}
