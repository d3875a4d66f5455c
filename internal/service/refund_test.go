package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefundStore struct {
	order        *models.Order
	payments     map[uuid.UUID]*models.Payment
	refunds      []models.Refund
	giftPayments map[uuid.UUID]*models.GiftcardPayment
}

func (f *fakeRefundStore) GetOrder(_ context.Context, merchantID, orderID uuid.UUID) (*models.Order, error) {
	if f.order == nil || f.order.ID != orderID || f.order.MerchantID != merchantID {
		return nil, models.ErrOrderNotFound
	}
	order := *f.order
	return &order, nil
}

func (f *fakeRefundStore) GetPayment(_ context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, ok := f.payments[paymentID]
	if !ok {
		return nil, models.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (f *fakeRefundStore) GetLatestSucceededPayment(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var latest *models.Payment
	for _, payment := range f.payments {
		if payment.OrderID != orderID || payment.Status != models.PaymentStatusSucceeded {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, models.ErrPaymentNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeRefundStore) GetPaymentForUpdateTx(ctx context.Context, _ pgx.Tx, paymentID uuid.UUID) (*models.Payment, error) {
	return f.GetPayment(ctx, paymentID)
}

func (f *fakeRefundStore) SumRefundsTx(_ context.Context, _ pgx.Tx, paymentID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, refund := range f.refunds {
		if refund.PaymentID == paymentID {
			sum = sum.Add(refund.Amount)
		}
	}
	return sum, nil
}

func (f *fakeRefundStore) CreateRefundTx(_ context.Context, _ pgx.Tx, refund *models.Refund) error {
	f.refunds = append(f.refunds, *refund)
	return nil
}

func (f *fakeRefundStore) GetRefundsByOrderID(_ context.Context, orderID uuid.UUID) ([]models.Refund, error) {
	var out []models.Refund
	for _, refund := range f.refunds {
		if refund.OrderID == orderID {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (f *fakeRefundStore) GetGiftcardPaymentByPaymentID(_ context.Context, paymentID uuid.UUID) (*models.GiftcardPayment, error) {
	gp, ok := f.giftPayments[paymentID]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	copied := *gp
	return &copied, nil
}

type refundFixture struct {
	store   *fakeRefundStore
	ledger  *fakeLedger
	starter *fakeTxStarter
	svc     *RefundService
}

func newRefundFixture(store *fakeRefundStore) *refundFixture {
	ledger := &fakeLedger{cards: map[string]*models.Giftcard{}}
	starter := &fakeTxStarter{}
	svc := NewRefundService(store, store, ledger, starter, zap.NewNop())
	return &refundFixture{store: store, ledger: ledger, starter: starter, svc: svc}
}

func closedOrderWithPayment(amount decimal.Decimal) (*fakeRefundStore, uuid.UUID, uuid.UUID) {
	merchantID := uuid.New()
	order := &models.Order{ID: uuid.New(), MerchantID: merchantID, Status: models.OrderStatusClosed, Currency: models.CurrencyEUR}
	payment := &models.Payment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Method:   models.MethodCard,
		Amount:   amount,
		Currency: "EUR",
		Status:   models.PaymentStatusSucceeded,
	}
	store := &fakeRefundStore{
		order:        order,
		payments:     map[uuid.UUID]*models.Payment{payment.ID: payment},
		giftPayments: map[uuid.UUID]*models.GiftcardPayment{},
	}
	return store, merchantID, payment.ID
}

func TestRefundService_CreateRefund_PartialThenExceeds(t *testing.T) {
	store, merchantID, paymentID := closedOrderWithPayment(money("121.00"))
	fx := newRefundFixture(store)

	refund, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
		PaymentID: &paymentID,
		Amount:    money("20.00"),
		Reason:    "spilled drink",
	})
	require.NoError(t, err)
	assert.True(t, refund.IsPartial)
	assert.True(t, refund.Amount.Equal(money("20.00")))

	// 20.00 already refunded, only 101.00 is left on the payment
	_, err = fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
		PaymentID: &paymentID,
		Amount:    money("110.00"),
	})
	require.ErrorIs(t, err, models.ErrRefundExceedsTotal)
	assert.Len(t, store.refunds, 1)
}

func TestRefundService_CreateRefund_FullIsNotPartial(t *testing.T) {
	store, merchantID, paymentID := closedOrderWithPayment(money("50.00"))
	fx := newRefundFixture(store)

	refund, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
		PaymentID: &paymentID,
		Amount:    money("50.00"),
	})
	require.NoError(t, err)
	assert.False(t, refund.IsPartial)
	require.Len(t, fx.starter.txs, 1)
	assert.True(t, fx.starter.txs[0].committed)
}

func TestRefundService_CreateRefund_DefaultsToLatestPayment(t *testing.T) {
	store, merchantID, paymentID := closedOrderWithPayment(money("30.00"))
	fx := newRefundFixture(store)

	refund, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
		Amount: money("10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, paymentID, refund.PaymentID)
}

func TestRefundService_CreateRefund_BadAmounts(t *testing.T) {
	store, merchantID, paymentID := closedOrderWithPayment(money("30.00"))
	fx := newRefundFixture(store)

	tests := []struct {
		name   string
		amount decimal.Decimal
	}{
		{name: "zero", amount: decimal.Zero},
		{name: "negative", amount: money("-5.00")},
		{name: "sub_cent", amount: decimal.RequireFromString("1.005")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
				PaymentID: &paymentID,
				Amount:    tt.amount,
			})
			var validationErr *models.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
		})
	}
}

func TestRefundService_CreateRefund_PaymentFromAnotherOrder(t *testing.T) {
	store, merchantID, _ := closedOrderWithPayment(money("30.00"))
	fx := newRefundFixture(store)

	stray := &models.Payment{
		ID:      uuid.New(),
		OrderID: uuid.New(),
		Method:  models.MethodCash,
		Amount:  money("30.00"),
		Status:  models.PaymentStatusSucceeded,
	}
	store.payments[stray.ID] = stray

	_, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
		PaymentID: &stray.ID,
		Amount:    money("10.00"),
	})
	require.ErrorIs(t, err, models.ErrPaymentNotFound)
}

func TestRefundService_CreateRefund_RestockGiftcard(t *testing.T) {
	store, merchantID, paymentID := closedOrderWithPayment(money("50.00"))
	store.payments[paymentID].Method = models.MethodGiftcard

	giftcardID := uuid.New()
	store.giftPayments[paymentID] = &models.GiftcardPayment{
		ID:         uuid.New(),
		PaymentID:  paymentID,
		GiftcardID: giftcardID,
		AmountUsed: money("50.00"),
	}

	fx := newRefundFixture(store)
	fx.ledger.cards["GIFT-2024-001"] = &models.Giftcard{
		ID:             giftcardID,
		MerchantID:     merchantID,
		Code:           "GIFT-2024-001",
		InitialBalance: money("100.00"),
		Balance:        money("50.00"),
		IsActive:       true,
	}

	t.Run("opt_in_credits_the_card", func(t *testing.T) {
		_, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
			PaymentID:       &paymentID,
			Amount:          money("20.00"),
			RestockGiftcard: true,
		})
		require.NoError(t, err)
		assert.True(t, fx.ledger.cards["GIFT-2024-001"].Balance.Equal(money("70.00")),
			"balance = %s", fx.ledger.cards["GIFT-2024-001"].Balance)
	})

	t.Run("default_leaves_balance_untouched", func(t *testing.T) {
		_, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
			PaymentID: &paymentID,
			Amount:    money("10.00"),
		})
		require.NoError(t, err)
		assert.True(t, fx.ledger.cards["GIFT-2024-001"].Balance.Equal(money("70.00")))
	})
}

func TestRefundService_ListRefunds(t *testing.T) {
	store, merchantID, paymentID := closedOrderWithPayment(money("40.00"))
	fx := newRefundFixture(store)

	_, err := fx.svc.CreateRefund(context.Background(), merchantID, store.order.ID, CreateRefundRequest{
		PaymentID: &paymentID,
		Amount:    money("15.00"),
	})
	require.NoError(t, err)

	refunds, err := fx.svc.ListRefunds(context.Background(), merchantID, store.order.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.True(t, refunds[0].Amount.Equal(money("15.00")))

	_, err = fx.svc.ListRefunds(context.Background(), uuid.New(), store.order.ID)
	require.ErrorIs(t, err, models.ErrOrderNotFound)
}
