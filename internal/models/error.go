package models

import (
	"errors"
	"fmt"
)

var (
	ErrConflictData        = errors.New("data conflicts with existing data")
	ErrDataNotFound        = errors.New("data not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderAlreadyClosed  = errors.New("order is already closed")
	ErrOrderCancelled      = errors.New("order is cancelled")
	ErrOrderHasPayments    = errors.New("order has succeeded payments")
	ErrNoApplicableRate    = errors.New("no applicable tax rate")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrGiftcardNotFound    = errors.New("gift card not found")
	ErrGiftcardInactive    = errors.New("gift card is inactive or expired")
	ErrInsufficientBalance = errors.New("insufficient gift card balance")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrRefundExceedsTotal  = errors.New("refund exceeds refundable amount")
	ErrInternalError       = errors.New("internal error")
)

// ValidationError is an expected business-rule rejection of a proposed
// payment. It carries a reason for the caller and never indicates an
// infrastructure fault.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates ValidationError with formatted reason
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// GatewayError is a card-processor failure. The close that hit it is safe
// to retry with the same idempotency key.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("card gateway: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("card gateway: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
