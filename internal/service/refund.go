package service

import (
	"context"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundPaymentRepository is interface for refund-related payment data
type RefundPaymentRepository interface {
	// GetPayment returns payment by id
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	// GetLatestSucceededPayment returns the order's most recent SUCCEEDED payment
	GetLatestSucceededPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	// GetPaymentForUpdateTx returns the payment with a row lock
	GetPaymentForUpdateTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (*models.Payment, error)
	// SumRefundsTx returns the amount already refunded against the payment
	SumRefundsTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (decimal.Decimal, error)
	// CreateRefundTx inserts a refund row
	CreateRefundTx(ctx context.Context, tx pgx.Tx, refund *models.Refund) error
	// GetRefundsByOrderID returns refunds of the order
	GetRefundsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Refund, error)
	// GetGiftcardPaymentByPaymentID returns the gift card debit tied to the payment
	GetGiftcardPaymentByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.GiftcardPayment, error)
}

// RefundOrderReader is interface for scoping refunds to the merchant's order
type RefundOrderReader interface {
	// GetOrder returns the merchant's order by id
	GetOrder(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error)
}

// GiftcardCreditor is interface for re-crediting a refunded gift card debit
type GiftcardCreditor interface {
	// CreditTx credits amount back to the card, bounded by its initial balance
	CreditTx(ctx context.Context, tx pgx.Tx, giftcardID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// CreateRefundRequest is a request to refund part or all of a payment.
// A nil PaymentID targets the order's most recent succeeded payment.
// RestockGiftcard re-credits the debit of a gift-card-funded payment; it is
// an explicit opt-in, never implied.
type CreateRefundRequest struct {
	PaymentID       *uuid.UUID
	Amount          decimal.Decimal
	Reason          string
	RestockGiftcard bool
}

// RefundService creates full and partial refunds against captured payments
type RefundService struct {
	orders   RefundOrderReader
	payments RefundPaymentRepository
	ledger   GiftcardCreditor
	tx       TxStarter
	logger   *zap.Logger
}

// NewRefundService creates new RefundService instance
func NewRefundService(orders RefundOrderReader, payments RefundPaymentRepository, ledger GiftcardCreditor, tx TxStarter, logger *zap.Logger) *RefundService {
	return &RefundService{
		orders:   orders,
		payments: payments,
		ledger:   ledger,
		tx:       tx,
		logger:   logger,
	}
}

// CreateRefund records a refund against a payment of the merchant's order.
// The refunds against one payment never sum above the payment's amount;
// the payment row is locked for the check so concurrent refunds serialize.
func (rs *RefundService) CreateRefund(ctx context.Context, merchantID, orderID uuid.UUID, req CreateRefundRequest) (*models.Refund, error) {
	if !req.Amount.IsPositive() {
		return nil, models.NewValidationError("refund amount must be positive")
	}
	if req.Amount.Exponent() < -2 {
		return nil, models.NewValidationError("refund amount has more than two decimals")
	}

	order, err := rs.orders.GetOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	var payment *models.Payment
	if req.PaymentID != nil {
		payment, err = rs.payments.GetPayment(ctx, *req.PaymentID)
	} else {
		payment, err = rs.payments.GetLatestSucceededPayment(ctx, order.ID)
	}
	if err != nil {
		return nil, err
	}
	if payment.OrderID != order.ID || payment.Status != models.PaymentStatusSucceeded {
		return nil, models.ErrPaymentNotFound
	}

	tx, err := rs.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := rs.payments.GetPaymentForUpdateTx(ctx, tx, payment.ID)
	if err != nil {
		return nil, err
	}

	refunded, err := rs.payments.SumRefundsTx(ctx, tx, locked.ID)
	if err != nil {
		return nil, err
	}

	if req.Amount.GreaterThan(locked.Amount.Sub(refunded)) {
		return nil, models.ErrRefundExceedsTotal
	}

	refund := models.Refund{
		ID:        uuid.New(),
		PaymentID: locked.ID,
		OrderID:   order.ID,
		Amount:    req.Amount,
		Reason:    req.Reason,
		IsPartial: req.Amount.LessThan(locked.Amount),
	}

	if err := rs.payments.CreateRefundTx(ctx, tx, &refund); err != nil {
		return nil, err
	}

	if req.RestockGiftcard && locked.Method == models.MethodGiftcard {
		gp, err := rs.payments.GetGiftcardPaymentByPaymentID(ctx, locked.ID)
		if err != nil {
			return nil, err
		}
		if _, err := rs.ledger.CreditTx(ctx, tx, gp.GiftcardID, req.Amount); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	rs.logger.Info("refund created",
		zap.String("order", order.ID.String()),
		zap.String("payment", locked.ID.String()),
		zap.String("amount", refund.Amount.StringFixed(2)),
		zap.Bool("partial", refund.IsPartial))

	return &refund, nil
}

// ListRefunds returns the refunds recorded against the merchant's order
func (rs *RefundService) ListRefunds(ctx context.Context, merchantID, orderID uuid.UUID) ([]models.Refund, error) {
	order, err := rs.orders.GetOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	return rs.payments.GetRefundsByOrderID(ctx, order.ID)
}
