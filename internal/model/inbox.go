package model

import (
	"time"

	"github.com/google/uuid"
)

type InboxMessage struct {
	ID          uuid.UUID  `db:"id"`
	Topic       string     `db:"topic"`
	Payload     []byte     `db:"payload"`
	CreatedAt   time.Time  `db:"created_at"`
	Processed   bool       `db:"processed"`
	ProcessedAt *time.Time `db:"processed_at"`
}

// SettlementMessage is the provider's final word on a submitted transaction.
type SettlementMessage struct {
	TransactionID string           `json:"transactionId"`
	Status        WithdrawalStatus `json:"status"` // SUCCESS or FAILED
	Reason        string           `json:"reason,omitempty"`
}

func (m SettlementMessage) Valid() bool {
	if m.TransactionID == "" {
		return false
	}

	return m.Status == WithdrawalStatusSuccess || m.Status == WithdrawalStatusFailed
}
