package service

import (
	"context"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GiftcardReader is interface for resolving gift cards during validation
type GiftcardReader interface {
	// GetByCode returns the merchant's gift card by code
	GetByCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Giftcard, error)
}

// PaymentValidator decides whether a proposed payment is acceptable before
// any money moves. Business-rule rejections come back as
// *models.ValidationError or the matching sentinel; only infrastructure
// failures surface as other errors.
type PaymentValidator struct {
	giftcards GiftcardReader
	now       func() time.Time
}

// NewPaymentValidator creates new PaymentValidator instance
func NewPaymentValidator(giftcards GiftcardReader) *PaymentValidator {
	return &PaymentValidator{
		giftcards: giftcards,
		now:       time.Now,
	}
}

// Validate checks one proposed payment against the remaining balance.
// last marks the final payment of the submission; only there may a cash
// amount exceed remaining, producing change.
func (pv *PaymentValidator) Validate(ctx context.Context, merchantID uuid.UUID, payment models.PaymentRequest, remaining decimal.Decimal, last bool) error {
	if !payment.Amount.IsPositive() {
		return models.NewValidationError("payment amount must be positive")
	}
	if payment.Amount.Exponent() < -2 {
		return models.NewValidationError("payment amount has more than two decimals")
	}
	if !models.IsSupportedCurrency(payment.Currency) {
		return models.ErrUnsupportedCurrency
	}

	switch payment.Method {
	case models.MethodCash:
		return pv.validateCash(payment, remaining, last)
	case models.MethodCard:
		return pv.validateCard(payment, remaining)
	case models.MethodGiftcard:
		return pv.validateGiftcard(ctx, merchantID, payment, remaining)
	default:
		return models.NewValidationError("unknown payment method %q", payment.Method)
	}
}

func (pv *PaymentValidator) validateCash(payment models.PaymentRequest, remaining decimal.Decimal, last bool) error {
	if payment.Amount.GreaterThan(remaining) && !last {
		return models.NewValidationError("cash overpayment is only allowed on the final payment")
	}
	return nil
}

func (pv *PaymentValidator) validateCard(payment models.PaymentRequest, remaining decimal.Decimal) error {
	if payment.Card == nil {
		return models.NewValidationError("card payment is missing card details")
	}
	if payment.Card.Provider == "" {
		return models.NewValidationError("card payment requires a provider")
	}
	if payment.Card.IdempotencyKey == uuid.Nil {
		return models.NewValidationError("card payment requires an idempotency key")
	}
	// no change is given on card
	if payment.Amount.GreaterThan(remaining) {
		return models.NewValidationError("card payment exceeds remaining balance")
	}
	return nil
}

func (pv *PaymentValidator) validateGiftcard(ctx context.Context, merchantID uuid.UUID, payment models.PaymentRequest, remaining decimal.Decimal) error {
	if payment.Giftcard == nil || payment.Giftcard.Code == "" {
		return models.NewValidationError("gift card payment requires a card code")
	}
	if payment.Amount.GreaterThan(remaining) {
		return models.NewValidationError("gift card payment exceeds remaining balance")
	}

	card, err := pv.giftcards.GetByCode(ctx, merchantID, payment.Giftcard.Code)
	if err != nil {
		return err
	}
	if !card.Usable(pv.now()) {
		return models.ErrGiftcardInactive
	}
	if card.Balance.LessThan(payment.Amount) {
		return models.ErrInsufficientBalance
	}

	return nil
}
