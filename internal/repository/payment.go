package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/dmarkin/tillpos/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	insertPaymentQuery = `
						INSERT INTO payments (id, order_id, method, amount, currency, provider, status, payment_intent_id, transaction_id)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
						RETURNING created_at
`
	selectPaymentsByOrderQuery = `
						SELECT id, order_id, method, amount, currency, provider, status, payment_intent_id, transaction_id, created_at
						FROM payments
						WHERE order_id = $1
						ORDER BY created_at
`
	selectPaymentQuery = `
						SELECT id, order_id, method, amount, currency, provider, status, payment_intent_id, transaction_id, created_at
						FROM payments
						WHERE id = $1
`
	selectPaymentForUpdateQuery = selectPaymentQuery + `
						FOR UPDATE
`
	selectLatestSucceededPaymentQuery = `
						SELECT id, order_id, method, amount, currency, provider, status, payment_intent_id, transaction_id, created_at
						FROM payments
						WHERE order_id = $1 AND status = 'SUCCEEDED'
						ORDER BY created_at DESC
						LIMIT 1
`
	insertGiftcardPaymentQuery = `
						INSERT INTO giftcard_payments (id, payment_id, giftcard_id, amount_used)
						VALUES ($1, $2, $3, $4)
`
	selectGiftcardPaymentQuery = `
						SELECT id, payment_id, giftcard_id, amount_used
						FROM giftcard_payments
						WHERE payment_id = $1
`
	insertOrderTipQuery = `
						INSERT INTO order_tips (id, order_id, source, amount)
						VALUES ($1, $2, $3, $4)
`
	insertRefundQuery = `
						INSERT INTO refunds (id, payment_id, order_id, amount, reason, is_partial)
						VALUES ($1, $2, $3, $4, $5, $6)
						RETURNING created_at
`
	selectRefundSumQuery = `
						SELECT COALESCE(SUM(amount), 0) FROM refunds
						WHERE payment_id = $1
`
	selectRefundsByOrderQuery = `
						SELECT id, payment_id, order_id, amount, reason, is_partial, created_at
						FROM refunds
						WHERE order_id = $1
						ORDER BY created_at
`
	insertCardAttemptQuery = `
						INSERT INTO card_attempts (idempotency_key, order_id, amount, currency, provider, status)
						VALUES ($1, $2, $3, $4, $5, 'PENDING')
						ON CONFLICT (idempotency_key) DO NOTHING
`
	updateCardAttemptQuery = `
						UPDATE card_attempts
						SET status = $2, updated_at = now()
						WHERE idempotency_key = $1
`
	selectStaleCardAttemptsQuery = `
						SELECT idempotency_key, order_id, amount, currency, provider, status, created_at, updated_at
						FROM card_attempts
						WHERE status = 'PENDING' AND created_at < $1
						ORDER BY created_at
`
)

// PaymentRepository implements persistence for payments, refunds, tips and
// card charge attempts
type PaymentRepository struct {
	db *postgres.DB
}

// NewPaymentRepository creates new PaymentRepository instance
func NewPaymentRepository(db *postgres.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreatePaymentTx inserts a payment row inside the settlement transaction
func (pr *PaymentRepository) CreatePaymentTx(ctx context.Context, tx pgx.Tx, payment *models.Payment) error {
	return tx.QueryRow(ctx, insertPaymentQuery,
		payment.ID, payment.OrderID, payment.Method, payment.Amount, payment.Currency,
		payment.Provider, payment.Status, payment.PaymentIntentID, payment.TransactionID,
	).Scan(&payment.CreatedAt)
}

// GetPaymentsByOrderID returns all payments of the order in creation order
func (pr *PaymentRepository) GetPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	rows, err := pr.db.Query(ctx, selectPaymentsByOrderQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}

	for rows.Next() {
		payment := models.Payment{}
		err = rows.Scan(&payment.ID, &payment.OrderID, &payment.Method, &payment.Amount,
			&payment.Currency, &payment.Provider, &payment.Status,
			&payment.PaymentIntentID, &payment.TransactionID, &payment.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

// GetPayment returns payment by id
func (pr *PaymentRepository) GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return pr.scanPayment(pr.db.QueryRow(ctx, selectPaymentQuery, paymentID))
}

// GetPaymentForUpdateTx returns payment by id with a row lock, serializing
// concurrent refunds against the same payment
func (pr *PaymentRepository) GetPaymentForUpdateTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (*models.Payment, error) {
	return pr.scanPayment(tx.QueryRow(ctx, selectPaymentForUpdateQuery, paymentID))
}

// GetLatestSucceededPayment returns the most recent SUCCEEDED payment of the order
func (pr *PaymentRepository) GetLatestSucceededPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return pr.scanPayment(pr.db.QueryRow(ctx, selectLatestSucceededPaymentQuery, orderID))
}

func (pr *PaymentRepository) scanPayment(row pgx.Row) (*models.Payment, error) {
	payment := models.Payment{}
	err := row.Scan(&payment.ID, &payment.OrderID, &payment.Method, &payment.Amount,
		&payment.Currency, &payment.Provider, &payment.Status,
		&payment.PaymentIntentID, &payment.TransactionID, &payment.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, err
	}

	return &payment, nil
}

// CreateGiftcardPaymentTx inserts the join row tying a debit to its payment
func (pr *PaymentRepository) CreateGiftcardPaymentTx(ctx context.Context, tx pgx.Tx, gp *models.GiftcardPayment) error {
	_, err := tx.Exec(ctx, insertGiftcardPaymentQuery, gp.ID, gp.PaymentID, gp.GiftcardID, gp.AmountUsed)
	return err
}

// GetGiftcardPaymentByPaymentID returns the gift card debit tied to the payment
func (pr *PaymentRepository) GetGiftcardPaymentByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.GiftcardPayment, error) {
	gp := models.GiftcardPayment{}
	err := pr.db.QueryRow(ctx, selectGiftcardPaymentQuery, paymentID).Scan(&gp.ID, &gp.PaymentID, &gp.GiftcardID, &gp.AmountUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &gp, nil
}

// CreateOrderTipTx inserts the order tip row
func (pr *PaymentRepository) CreateOrderTipTx(ctx context.Context, tx pgx.Tx, tip *models.OrderTip) error {
	_, err := tx.Exec(ctx, insertOrderTipQuery, tip.ID, tip.OrderID, tip.Source, tip.Amount)
	return err
}

// CreateRefundTx inserts a refund row inside the refund transaction
func (pr *PaymentRepository) CreateRefundTx(ctx context.Context, tx pgx.Tx, refund *models.Refund) error {
	return tx.QueryRow(ctx, insertRefundQuery,
		refund.ID, refund.PaymentID, refund.OrderID, refund.Amount, refund.Reason, refund.IsPartial,
	).Scan(&refund.CreatedAt)
}

// SumRefundsTx returns the total already refunded against the payment
func (pr *PaymentRepository) SumRefundsTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, selectRefundSumQuery, paymentID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// GetRefundsByOrderID returns refunds of the order in creation order
func (pr *PaymentRepository) GetRefundsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Refund, error) {
	rows, err := pr.db.Query(ctx, selectRefundsByOrderQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := []models.Refund{}

	for rows.Next() {
		refund := models.Refund{}
		err = rows.Scan(&refund.ID, &refund.PaymentID, &refund.OrderID, &refund.Amount,
			&refund.Reason, &refund.IsPartial, &refund.CreatedAt)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refunds, nil
}

// CreateCardAttempt persists the idempotency key before the first gateway
// call. Replays of the same key are no-ops.
func (pr *PaymentRepository) CreateCardAttempt(ctx context.Context, attempt *models.CardAttempt) error {
	_, err := pr.db.Exec(ctx, insertCardAttemptQuery,
		attempt.IdempotencyKey, attempt.OrderID, attempt.Amount, attempt.Currency, attempt.Provider)
	return err
}

// UpdateCardAttemptStatus records the gateway outcome for the attempt
func (pr *PaymentRepository) UpdateCardAttemptStatus(ctx context.Context, idempotencyKey uuid.UUID, status string) error {
	cmd, err := pr.db.Exec(ctx, updateCardAttemptQuery, idempotencyKey, status)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}

// GetStaleCardAttempts returns PENDING attempts created before the cutoff
func (pr *PaymentRepository) GetStaleCardAttempts(ctx context.Context, cutoff time.Time) ([]models.CardAttempt, error) {
	rows, err := pr.db.Query(ctx, selectStaleCardAttemptsQuery, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []models.CardAttempt{}

	for rows.Next() {
		attempt := models.CardAttempt{}
		err = rows.Scan(&attempt.IdempotencyKey, &attempt.OrderID, &attempt.Amount,
			&attempt.Currency, &attempt.Provider, &attempt.Status,
			&attempt.CreatedAt, &attempt.UpdatedAt)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return attempts, nil
}
