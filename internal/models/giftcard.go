package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Giftcard is gift card entity. Balance never leaves [0, InitialBalance];
// a debit that would break that is rejected, never clamped.
type Giftcard struct {
	ID             uuid.UUID
	MerchantID     uuid.UUID
	Code           string
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
	ExpiresAt      *time.Time
	IsActive       bool
	CreatedAt      time.Time
}

// Usable reports whether the card may be debited at the given instant
func (g *Giftcard) Usable(at time.Time) bool {
	if !g.IsActive {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(at) {
		return false
	}
	return true
}

// GiftcardPayment ties a gift card debit to the payment that spent it
type GiftcardPayment struct {
	ID         uuid.UUID
	PaymentID  uuid.UUID
	GiftcardID uuid.UUID
	AmountUsed decimal.Decimal
}
