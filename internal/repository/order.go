package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/dmarkin/tillpos/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	selectOrderQuery = `
						SELECT id, merchant_id, status, currency, discount_amount, service_charge_amount, created_at, closed_at, cancelled_at
						FROM orders
						WHERE id = $1 AND merchant_id = $2
`
	selectOrderItemsQuery = `
						SELECT i.id, i.order_id, i.kind, i.ref_id, i.quantity,
						       COALESCE(p.price, s.price, rs.price) AS unit_price,
						       COALESCE(p.tax_category_id, s.tax_category_id, rs.tax_category_id) AS tax_category_id
						FROM order_items i
						LEFT JOIN products p ON i.kind = 'PRODUCT' AND p.id = i.ref_id
						LEFT JOIN services s ON i.kind = 'SERVICE' AND s.id = i.ref_id
						LEFT JOIN reservations r ON i.kind = 'RESERVATION' AND r.id = i.ref_id
						LEFT JOIN services rs ON rs.id = r.service_id
						WHERE i.order_id = $1
						ORDER BY i.id
`
	closeOrderQuery = `
						UPDATE orders
						SET status = 'CLOSED', closed_at = $2
						WHERE id = $1 AND status = 'OPEN'
`
	cancelOrderQuery = `
						UPDATE orders
						SET status = 'CANCELLED', cancelled_at = $2
						WHERE id = $1 AND status = 'OPEN'
`
)

// OrderRepository implements order read access and state transitions
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetOrder returns the merchant's order by id
func (or *OrderRepository) GetOrder(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error) {
	order := models.Order{}
	err := or.db.QueryRow(ctx, selectOrderQuery, orderID, merchantID).Scan(
		&order.ID, &order.MerchantID, &order.Status, &order.Currency,
		&order.DiscountAmount, &order.ServiceChargeAmount,
		&order.CreatedAt, &order.ClosedAt, &order.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// GetOrderItems returns order items with unit price and tax category
// resolved from the referenced catalog entity
func (or *OrderRepository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := or.db.Query(ctx, selectOrderItemsQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}

	for rows.Next() {
		item := models.OrderItem{}
		err = rows.Scan(&item.ID, &item.OrderID, &item.Kind, &item.RefID, &item.Quantity, &item.UnitPrice, &item.TaxCategoryID)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// CloseOrderTx flips the order to CLOSED inside the settlement transaction.
// The status guard makes a lost close race visible as a conflict.
func (or *OrderRepository) CloseOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, closedAt time.Time) error {
	cmd, err := tx.Exec(ctx, closeOrderQuery, orderID, closedAt)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrConcurrencyConflict
	}

	return nil
}

// CancelOrderTx flips the order to CANCELLED
func (or *OrderRepository) CancelOrderTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, cancelledAt time.Time) error {
	cmd, err := tx.Exec(ctx, cancelOrderQuery, orderID, cancelledAt)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrConcurrencyConflict
	}

	return nil
}
