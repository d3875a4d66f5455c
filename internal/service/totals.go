package service

import (
	"context"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemReader is interface for loading order lines with resolved prices
type OrderItemReader interface {
	// GetOrderItems returns order items with unit price and tax category resolved
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

// PaymentReader is interface for loading an order's recorded payments
type PaymentReader interface {
	// GetPaymentsByOrderID returns all payments of the order
	GetPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

// Adjustments are externally resolved amounts added on top of item math.
// The calculator aggregates them as given, it never recomputes them from
// discount or service-charge policies.
type Adjustments struct {
	Discount      decimal.Decimal
	ServiceCharge decimal.Decimal
	Tip           decimal.Decimal
}

// TotalsCalculator computes what an order owes. It only reads; both entry
// points are free of side effects.
type TotalsCalculator struct {
	items    OrderItemReader
	payments PaymentReader
	rates    *TaxRateResolver
	now      func() time.Time
}

// NewTotalsCalculator creates new TotalsCalculator instance
func NewTotalsCalculator(items OrderItemReader, payments PaymentReader, rates *TaxRateResolver) *TotalsCalculator {
	return &TotalsCalculator{
		items:    items,
		payments: payments,
		rates:    rates,
		now:      time.Now,
	}
}

// Compute calculates totals from the order's own persisted adjustments
func (tc *TotalsCalculator) Compute(ctx context.Context, order *models.Order) (*models.Totals, error) {
	adj := Adjustments{}
	if order.DiscountAmount != nil {
		adj.Discount = *order.DiscountAmount
	}
	if order.ServiceChargeAmount != nil {
		adj.ServiceCharge = *order.ServiceChargeAmount
	}

	return tc.ComputeWith(ctx, order, adj)
}

// ComputeWith calculates totals with ad-hoc adjustment overrides, used for
// previews and close-time calls.
//
// Per-item tax is rounded half-to-even at two decimals before it is merged
// into the per-category breakdown, so the breakdown always sums exactly to
// the tax figure.
func (tc *TotalsCalculator) ComputeWith(ctx context.Context, order *models.Order, adj Adjustments) (*models.Totals, error) {
	items, err := tc.items.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	now := tc.now()

	subtotal := decimal.Zero
	breakdown := []models.TaxLine{}
	lineIdx := map[uuid.UUID]int{}

	for _, item := range items {
		lineSubtotal := item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(lineSubtotal)

		if item.TaxCategoryID == nil {
			continue
		}

		rate, err := tc.rates.RateAt(ctx, *item.TaxCategoryID, now)
		if err != nil {
			return nil, err
		}

		lineTax := models.RoundMoney(lineSubtotal.Mul(rate.RatePercent).Div(decimal.NewFromInt(100)))

		if idx, ok := lineIdx[*item.TaxCategoryID]; ok {
			breakdown[idx].Amount = breakdown[idx].Amount.Add(lineTax)
			continue
		}

		name, err := tc.rates.CategoryName(ctx, *item.TaxCategoryID)
		if err != nil {
			return nil, err
		}

		lineIdx[*item.TaxCategoryID] = len(breakdown)
		breakdown = append(breakdown, models.TaxLine{
			TaxCategoryID: *item.TaxCategoryID,
			CategoryName:  name,
			RatePercent:   rate.RatePercent,
			Amount:        lineTax,
		})
	}

	tax := decimal.Zero
	for _, line := range breakdown {
		tax = tax.Add(line.Amount)
	}

	discount := models.RoundMoney(adj.Discount)
	serviceCharge := models.RoundMoney(adj.ServiceCharge)
	tip := models.RoundMoney(adj.Tip)

	total := subtotal.Add(tax).Sub(discount).Add(serviceCharge).Add(tip)
	if total.IsNegative() {
		total = decimal.Zero
	}

	paid, err := tc.paidAmount(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	remaining := total.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &models.Totals{
		Subtotal:      subtotal,
		TaxBreakdown:  breakdown,
		Tax:           tax,
		Discount:      discount,
		ServiceCharge: serviceCharge,
		Tip:           tip,
		Total:         total,
		Paid:          paid,
		Remaining:     remaining,
	}, nil
}

// ItemAmounts returns each line's subtotal plus its rounded tax, keyed by
// order item id. The split-close path partitions the order across item
// groups with these amounts, so they follow the exact rounding the
// breakdown uses.
func (tc *TotalsCalculator) ItemAmounts(ctx context.Context, order *models.Order) (map[uuid.UUID]decimal.Decimal, error) {
	items, err := tc.items.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	now := tc.now()
	amounts := make(map[uuid.UUID]decimal.Decimal, len(items))

	for _, item := range items {
		amount := item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity))

		if item.TaxCategoryID != nil {
			rate, err := tc.rates.RateAt(ctx, *item.TaxCategoryID, now)
			if err != nil {
				return nil, err
			}
			amount = amount.Add(models.RoundMoney(amount.Mul(rate.RatePercent).Div(decimal.NewFromInt(100))))
		}

		amounts[item.ID] = amount
	}

	return amounts, nil
}

func (tc *TotalsCalculator) paidAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	payments, err := tc.payments.GetPaymentsByOrderID(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}

	paid := decimal.Zero
	for _, payment := range payments {
		if payment.Status == models.PaymentStatusSucceeded {
			paid = paid.Add(payment.Amount)
		}
	}

	return paid, nil
}
