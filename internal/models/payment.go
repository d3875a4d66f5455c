package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// payment method kind
const (
	MethodCash     = "CASH"
	MethodCard     = "CARD"
	MethodGiftcard = "GIFT_CARD"
)

// payment status
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusSucceeded = "SUCCEEDED"
	PaymentStatusFailed    = "FAILED"
)

// Payment is a recorded payment row. Rows are created only by the
// settlement orchestrator.
type Payment struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Method          string
	Amount          decimal.Decimal
	Currency        string
	Provider        *string
	Status          string
	PaymentIntentID *string
	TransactionID   *string
	CreatedAt       time.Time
}

// CardDetails is the card-specific payload of a payment request
type CardDetails struct {
	Provider       string
	IdempotencyKey uuid.UUID
}

// GiftcardDetails is the gift-card-specific payload of a payment request
type GiftcardDetails struct {
	Code string
}

// PaymentRequest is one proposed payment within a close request. Method is
// the closed set of kinds above; exactly the payload matching Method is
// populated, the others stay nil. Validators and the orchestrator switch on
// Method exhaustively and reject anything outside the set.
type PaymentRequest struct {
	Method   string
	Amount   decimal.Decimal
	Currency string
	Card     *CardDetails
	Giftcard *GiftcardDetails
}

// CardAttempt records an idempotency key persisted before the first gateway
// call, so a timed-out charge can be reconciled against the gateway later.
type CardAttempt struct {
	IdempotencyKey uuid.UUID
	OrderID        uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Provider       string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// card attempt status
const (
	CardAttemptPending   = "PENDING"
	CardAttemptSucceeded = "SUCCEEDED"
	CardAttemptFailed    = "FAILED"
)
