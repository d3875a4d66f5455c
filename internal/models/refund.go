package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund is a full or partial refund against one captured payment.
// IsPartial is derived: amount < the payment's amount.
type Refund struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Reason    string
	IsPartial bool
	CreatedAt time.Time
}
