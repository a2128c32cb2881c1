package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User
// @Description Account owner of withdrawals and payment methods.
type User struct {
	ID                  uuid.UUID        `db:"id"                    example:"4e0f3a54-7b0c-4d8e-9d61-1a3f0d8c2b11" json:"id"`                                             // User ID
	FirstName           string           `db:"first_name"            example:"Dmitry"                               json:"firstName"`                                      // First name
	MaxWithdrawalAmount *decimal.Decimal `db:"max_withdrawal_amount" example:"1000.00"                              json:"maxWithdrawalAmount,omitempty" swaggertype:"string"` // Per-withdrawal limit, unlimited when empty
	PaymentMethods      []PaymentMethod  `db:"-"                                                                    json:"paymentMethods"`                                 // Payment methods owned by the user
	CreatedAt           time.Time        `db:"created_at"            example:"2006-01-02T15:04:05Z"                 json:"createdAt"                     swaggertype:"string"` // Creation timestamp
} // @Name User

// Allows reports whether amount fits under the user's withdrawal limit.
func (u *User) Allows(amount decimal.Decimal) bool {
	if u.MaxWithdrawalAmount == nil {
		return true
	}

	return amount.LessThanOrEqual(*u.MaxWithdrawalAmount)
}

// PaymentMethod
// @Description Destination a withdrawal is paid out to.
type PaymentMethod struct {
	ID     uuid.UUID `db:"id"      example:"0c9e5b7a-2d3f-4a61-8e4c-6b7d1f2e3a45" json:"id"`     // Payment method ID
	UserID uuid.UUID `db:"user_id" example:"4e0f3a54-7b0c-4d8e-9d61-1a3f0d8c2b11" json:"-"`      // Owner
	Name   string    `db:"name"    example:"My bank account"                      json:"name"`   // Display name
} // @Name PaymentMethod

type UserIDPathParam struct {
	ID string `uri:"user_id" binding:"required,uuid" example:"4e0f3a54-7b0c-4d8e-9d61-1a3f0d8c2b11"`
}
