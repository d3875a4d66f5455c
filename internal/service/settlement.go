package service

import (
	"context"
	"time"

	"github.com/dmarkin/tillpos/internal/gateway"
	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettlementOrderRepository is interface for order reads and state transitions
type SettlementOrderRepository interface {
	// GetOrder returns the merchant's order by id
	GetOrder(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error)
	// GetOrderItems returns order items with resolved prices
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	// CloseOrderTx flips the order to CLOSED
	CloseOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, closedAt time.Time) error
	// CancelOrderTx flips the order to CANCELLED
	CancelOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, cancelledAt time.Time) error
}

// SettlementPaymentRepository is interface for payment, tip and card-attempt writes
type SettlementPaymentRepository interface {
	// GetPaymentsByOrderID returns all payments of the order
	GetPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	// CreatePaymentTx inserts a payment row
	CreatePaymentTx(ctx context.Context, tx pgx.Tx, payment *models.Payment) error
	// CreateGiftcardPaymentTx inserts the debit join row
	CreateGiftcardPaymentTx(ctx context.Context, tx pgx.Tx, gp *models.GiftcardPayment) error
	// CreateOrderTipTx inserts the order tip row
	CreateOrderTipTx(ctx context.Context, tx pgx.Tx, tip *models.OrderTip) error
	// CreateCardAttempt persists an idempotency key before the first gateway call
	CreateCardAttempt(ctx context.Context, attempt *models.CardAttempt) error
	// UpdateCardAttemptStatus records the gateway outcome
	UpdateCardAttemptStatus(ctx context.Context, idempotencyKey uuid.UUID, status string) error
}

// GiftcardLedger is interface for atomic gift card debits
type GiftcardLedger interface {
	// DebitTx debits the card all-or-nothing inside the caller's transaction
	DebitTx(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, code string, amount decimal.Decimal) (uuid.UUID, decimal.Decimal, error)
}

// CardGateway is the contract the engine expects from the card processor
type CardGateway interface {
	// Charge submits an idempotent charge
	Charge(ctx context.Context, amount decimal.Decimal, currency, provider string, idempotencyKey uuid.UUID) (*gateway.ChargeResult, error)
	// Status queries a prior charge by its idempotency key
	Status(ctx context.Context, idempotencyKey uuid.UUID) (*gateway.ChargeResult, error)
}

// TxStarter is interface for opening the settlement transaction
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TipInput is a tip submitted with a close request
type TipInput struct {
	Source string
	Amount decimal.Decimal
}

// CloseOrderRequest carries the payments that should settle an order.
// Payment order is significant and preserved from the request.
type CloseOrderRequest struct {
	Payments            []models.PaymentRequest
	Tip                 *TipInput
	DiscountAmount      *decimal.Decimal
	ServiceChargeAmount *decimal.Decimal
}

// SplitGroup pays a set of order items with one method
type SplitGroup struct {
	OrderItemIDs   []uuid.UUID
	Method         string
	Currency       string
	Provider       string
	GiftcardCode   string
	IdempotencyKey uuid.UUID
}

// SplitCloseRequest closes an order with different items paid via
// different methods
type SplitCloseRequest struct {
	Splits              []SplitGroup
	Tip                 *TipInput
	DiscountAmount      *decimal.Decimal
	ServiceChargeAmount *decimal.Decimal
}

// CloseOrderResult is the outcome of a close attempt. When Requires3DS is
// set the order is still open and no funds were captured.
type CloseOrderResult struct {
	Order           *models.Order
	Payments        []models.Payment
	Totals          *models.Totals
	Change          decimal.Decimal
	Requires3DS     bool
	PaymentIntentID string
}

// SettlementService is the state machine that closes orders. It sequences
// validation and application of payments and is the only writer of payment,
// gift-card-payment, tip and refundable order state.
type SettlementService struct {
	orders    SettlementOrderRepository
	payments  SettlementPaymentRepository
	ledger    GiftcardLedger
	gateway   CardGateway
	calc      *TotalsCalculator
	validator *PaymentValidator
	tx        TxStarter
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettlementService creates new SettlementService instance
func NewSettlementService(
	orders SettlementOrderRepository,
	payments SettlementPaymentRepository,
	ledger GiftcardLedger,
	gw CardGateway,
	calc *TotalsCalculator,
	validator *PaymentValidator,
	tx TxStarter,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		orders:    orders,
		payments:  payments,
		ledger:    ledger,
		gateway:   gw,
		calc:      calc,
		validator: validator,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

// Totals computes a preview of what the order currently owes
func (ss *SettlementService) Totals(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Totals, error) {
	order, err := ss.orders.GetOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	return ss.calc.Compute(ctx, order)
}

// CloseOrder validates and applies the submitted payments against the
// order's remaining balance and closes it. Either every payment row, gift
// card debit and the CLOSED state commit together, or nothing does.
func (ss *SettlementService) CloseOrder(ctx context.Context, merchantID, orderID uuid.UUID, req CloseOrderRequest) (*CloseOrderResult, error) {
	order, err := ss.loadOpenOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	totals, err := ss.closeTotals(ctx, order, req.DiscountAmount, req.ServiceChargeAmount, req.Tip)
	if err != nil {
		return nil, err
	}

	if err := ss.validatePayments(ctx, order, totals, req.Payments); err != nil {
		return nil, err
	}

	return ss.settle(ctx, order, totals, req.Payments, req.Tip)
}

// CloseOrderSplit closes an order with different line items paid via
// different methods. The order's remaining balance, adjustments included,
// is distributed across the groups proportionally to each group's share of
// item subtotal plus tax; the last group absorbs the rounding remainder.
func (ss *SettlementService) CloseOrderSplit(ctx context.Context, merchantID, orderID uuid.UUID, req SplitCloseRequest) (*CloseOrderResult, error) {
	order, err := ss.loadOpenOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	totals, err := ss.closeTotals(ctx, order, req.DiscountAmount, req.ServiceChargeAmount, req.Tip)
	if err != nil {
		return nil, err
	}

	payments, err := ss.partitionSplits(ctx, order, totals, req.Splits)
	if err != nil {
		return nil, err
	}

	if err := ss.validatePayments(ctx, order, totals, payments); err != nil {
		return nil, err
	}

	return ss.settle(ctx, order, totals, payments, req.Tip)
}

// CancelOrder cancels an open order. Orders holding succeeded payments must
// be refunded, not cancelled.
func (ss *SettlementService) CancelOrder(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := ss.loadOpenOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	payments, err := ss.payments.GetPaymentsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	for _, payment := range payments {
		if payment.Status == models.PaymentStatusSucceeded {
			return nil, models.ErrOrderHasPayments
		}
	}

	tx, err := ss.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cancelledAt := ss.now()
	if err := ss.orders.CancelOrderTx(ctx, tx, order.ID, cancelledAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &cancelledAt

	return order, nil
}

func (ss *SettlementService) loadOpenOrder(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := ss.orders.GetOrder(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusClosed:
		return nil, models.ErrOrderAlreadyClosed
	case models.OrderStatusCancelled:
		return nil, models.ErrOrderCancelled
	}

	return order, nil
}

func (ss *SettlementService) closeTotals(ctx context.Context, order *models.Order, discount, serviceCharge *decimal.Decimal, tip *TipInput) (*models.Totals, error) {
	adj := Adjustments{}
	if discount != nil {
		adj.Discount = *discount
	} else if order.DiscountAmount != nil {
		adj.Discount = *order.DiscountAmount
	}
	if serviceCharge != nil {
		adj.ServiceCharge = *serviceCharge
	} else if order.ServiceChargeAmount != nil {
		adj.ServiceCharge = *order.ServiceChargeAmount
	}
	if tip != nil {
		adj.Tip = tip.Amount
	}

	return ss.calc.ComputeWith(ctx, order, adj)
}

// validatePayments checks each payment against the running remaining
// balance in submission order. A submission that leaves part of the balance
// unsettled is rejected whole.
func (ss *SettlementService) validatePayments(ctx context.Context, order *models.Order, totals *models.Totals, payments []models.PaymentRequest) error {
	if len(payments) == 0 && totals.Remaining.IsPositive() {
		return models.NewValidationError("order has %s remaining and no payments were submitted", totals.Remaining.StringFixed(2))
	}

	remaining := totals.Remaining
	for i, payment := range payments {
		last := i == len(payments)-1
		if err := ss.validator.Validate(ctx, order.MerchantID, payment, remaining, last); err != nil {
			return err
		}
		remaining = remaining.Sub(payment.Amount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
	}

	if remaining.IsPositive() {
		return models.NewValidationError("payments leave %s of the balance unsettled", remaining.StringFixed(2))
	}

	return nil
}

// partitionSplits turns item groups into concrete payment requests. Every
// order item must be referenced by exactly one group.
func (ss *SettlementService) partitionSplits(ctx context.Context, order *models.Order, totals *models.Totals, splits []SplitGroup) ([]models.PaymentRequest, error) {
	if len(splits) == 0 {
		return nil, models.NewValidationError("split close requires at least one item group")
	}

	amounts, err := ss.calc.ItemAmounts(ctx, order)
	if err != nil {
		return nil, err
	}

	base := make([]decimal.Decimal, len(splits))
	baseSum := decimal.Zero
	seen := map[uuid.UUID]struct{}{}

	for i, split := range splits {
		if len(split.OrderItemIDs) == 0 {
			return nil, models.NewValidationError("split group %d references no items", i)
		}
		groupBase := decimal.Zero
		for _, itemID := range split.OrderItemIDs {
			amount, ok := amounts[itemID]
			if !ok {
				return nil, models.NewValidationError("order item %s does not belong to the order", itemID)
			}
			if _, dup := seen[itemID]; dup {
				return nil, models.NewValidationError("order item %s is referenced by more than one group", itemID)
			}
			seen[itemID] = struct{}{}
			groupBase = groupBase.Add(amount)
		}
		base[i] = groupBase
		baseSum = baseSum.Add(groupBase)
	}

	if len(seen) != len(amounts) {
		return nil, models.NewValidationError("split groups must cover every order item")
	}
	if !baseSum.IsPositive() {
		return nil, models.NewValidationError("order has nothing to settle")
	}

	// distribute the remaining balance proportionally, the last group takes
	// the rounding remainder so the parts sum exactly
	payments := make([]models.PaymentRequest, len(splits))
	distributed := decimal.Zero

	for i, split := range splits {
		var amount decimal.Decimal
		if i == len(splits)-1 {
			amount = totals.Remaining.Sub(distributed)
		} else {
			amount = models.RoundMoney(totals.Remaining.Mul(base[i]).Div(baseSum))
			distributed = distributed.Add(amount)
		}

		if !amount.IsPositive() {
			return nil, models.NewValidationError("split group %d resolves to a non-positive amount", i)
		}

		payment := models.PaymentRequest{
			Method:   split.Method,
			Amount:   amount,
			Currency: split.Currency,
		}
		switch split.Method {
		case models.MethodCard:
			payment.Card = &models.CardDetails{
				Provider:       split.Provider,
				IdempotencyKey: split.IdempotencyKey,
			}
		case models.MethodGiftcard:
			payment.Giftcard = &models.GiftcardDetails{Code: split.GiftcardCode}
		}
		payments[i] = payment
	}

	return payments, nil
}

// settle captures card charges, then commits payment rows, gift card
// debits, the tip and the CLOSED state in one transaction.
func (ss *SettlementService) settle(ctx context.Context, order *models.Order, totals *models.Totals, payments []models.PaymentRequest, tip *TipInput) (*CloseOrderResult, error) {
	chargeResults := make([]*gateway.ChargeResult, len(payments))
	lastIntentID := ""

	for i, payment := range payments {
		if payment.Method != models.MethodCard {
			continue
		}

		attempt := &models.CardAttempt{
			IdempotencyKey: payment.Card.IdempotencyKey,
			OrderID:        order.ID,
			Amount:         payment.Amount,
			Currency:       payment.Currency,
			Provider:       payment.Card.Provider,
		}
		// the key must be durable before the first attempt so a timed-out
		// charge can be reconciled against the gateway
		if err := ss.payments.CreateCardAttempt(ctx, attempt); err != nil {
			return nil, err
		}

		result, err := ss.gateway.Charge(ctx, payment.Amount, payment.Currency, payment.Card.Provider, payment.Card.IdempotencyKey)
		if err != nil {
			// outcome unknown, leave the attempt pending for reconciliation
			ss.logger.Error("card charge failed",
				zap.String("order", order.ID.String()),
				zap.String("idempotency_key", payment.Card.IdempotencyKey.String()),
				zap.Error(err))
			return nil, err
		}

		if result.Requires3DS {
			return &CloseOrderResult{
				Order:           order,
				Totals:          totals,
				Requires3DS:     true,
				PaymentIntentID: result.PaymentIntentID,
			}, nil
		}

		if !result.Success {
			if err := ss.payments.UpdateCardAttemptStatus(ctx, payment.Card.IdempotencyKey, models.CardAttemptFailed); err != nil {
				ss.logger.Error("updating card attempt", zap.Error(err))
			}
			return nil, models.NewValidationError("card charge declined: %s", result.ErrorMessage)
		}

		if err := ss.payments.UpdateCardAttemptStatus(ctx, payment.Card.IdempotencyKey, models.CardAttemptSucceeded); err != nil {
			ss.logger.Error("updating card attempt", zap.Error(err))
		}

		chargeResults[i] = result
		if result.PaymentIntentID != "" {
			lastIntentID = result.PaymentIntentID
		}
	}

	tx, err := ss.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	applied := make([]models.Payment, 0, len(payments))
	submitted := decimal.Zero

	for i, payment := range payments {
		row := models.Payment{
			ID:       uuid.New(),
			OrderID:  order.ID,
			Method:   payment.Method,
			Amount:   payment.Amount,
			Currency: payment.Currency,
			Status:   models.PaymentStatusSucceeded,
		}

		var giftcardID uuid.UUID

		switch payment.Method {
		case models.MethodCard:
			provider := payment.Card.Provider
			row.Provider = &provider
			if result := chargeResults[i]; result != nil {
				if result.PaymentIntentID != "" {
					intentID := result.PaymentIntentID
					row.PaymentIntentID = &intentID
				}
				if result.TransactionID != "" {
					txnID := result.TransactionID
					row.TransactionID = &txnID
				}
			}
		case models.MethodGiftcard:
			giftcardID, _, err = ss.ledger.DebitTx(ctx, tx, order.MerchantID, payment.Giftcard.Code, payment.Amount)
			if err != nil {
				return nil, err
			}
		}

		if err := ss.payments.CreatePaymentTx(ctx, tx, &row); err != nil {
			return nil, err
		}

		if payment.Method == models.MethodGiftcard {
			gp := models.GiftcardPayment{
				ID:         uuid.New(),
				PaymentID:  row.ID,
				GiftcardID: giftcardID,
				AmountUsed: payment.Amount,
			}
			if err := ss.payments.CreateGiftcardPaymentTx(ctx, tx, &gp); err != nil {
				return nil, err
			}
		}

		applied = append(applied, row)
		submitted = submitted.Add(payment.Amount)
	}

	if tip != nil && tip.Amount.IsPositive() {
		tipRow := models.OrderTip{
			ID:      uuid.New(),
			OrderID: order.ID,
			Source:  tip.Source,
			Amount:  models.RoundMoney(tip.Amount),
		}
		if err := ss.payments.CreateOrderTipTx(ctx, tx, &tipRow); err != nil {
			return nil, err
		}
	}

	closedAt := ss.now()
	if err := ss.orders.CloseOrderTx(ctx, tx, order.ID, closedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusClosed
	order.ClosedAt = &closedAt

	// cash tendered above the balance is change, reported but never a ledger entry
	change := submitted.Sub(totals.Remaining)
	if change.IsNegative() {
		change = decimal.Zero
	}

	ss.logger.Info("order closed",
		zap.String("order", order.ID.String()),
		zap.Int("payments", len(applied)),
		zap.String("total", totals.Total.StringFixed(2)),
		zap.String("change", change.StringFixed(2)))

	return &CloseOrderResult{
		Order:           order,
		Payments:        applied,
		Totals:          totals,
		Change:          change,
		PaymentIntentID: lastIntentID,
	}, nil
}
