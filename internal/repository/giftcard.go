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
	selectGiftcardByCodeQuery = `
						SELECT id, merchant_id, code, initial_balance, balance, expires_at, is_active, created_at
						FROM giftcards
						WHERE merchant_id = $1 AND code = $2
`
	debitGiftcardQuery = `
						UPDATE giftcards
						SET balance = balance - $3
						WHERE merchant_id = $1 AND code = $2
						  AND is_active
						  AND (expires_at IS NULL OR expires_at > now())
						  AND balance >= $3
						RETURNING id, balance
`
	creditGiftcardQuery = `
						UPDATE giftcards
						SET balance = balance + $2
						WHERE id = $1 AND balance + $2 <= initial_balance
						RETURNING balance
`
)

// GiftcardRepository is the gift card ledger. It is the only place a card
// balance is mutated.
type GiftcardRepository struct {
	db *postgres.DB
}

// NewGiftcardRepository creates new GiftcardRepository instance
func NewGiftcardRepository(db *postgres.DB) *GiftcardRepository {
	return &GiftcardRepository{db: db}
}

// GetByCode returns the merchant's gift card by code
func (gr *GiftcardRepository) GetByCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Giftcard, error) {
	card := models.Giftcard{}
	err := gr.db.QueryRow(ctx, selectGiftcardByCodeQuery, merchantID, code).Scan(
		&card.ID, &card.MerchantID, &card.Code, &card.InitialBalance,
		&card.Balance, &card.ExpiresAt, &card.IsActive, &card.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGiftcardNotFound
		}
		return nil, err
	}

	return &card, nil
}

// DebitTx debits the card by amount inside the caller's transaction. The
// debit is a single conditional update, so two settlements racing on one
// card cannot both pass the balance check. When the update matches no row
// the card is re-read to name the exact failure.
func (gr *GiftcardRepository) DebitTx(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, code string, amount decimal.Decimal) (uuid.UUID, decimal.Decimal, error) {
	var cardID uuid.UUID
	var newBalance decimal.Decimal

	err := tx.QueryRow(ctx, debitGiftcardQuery, merchantID, code, amount).Scan(&cardID, &newBalance)
	if err == nil {
		return cardID, newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, decimal.Zero, err
	}

	card, lookupErr := gr.GetByCode(ctx, merchantID, code)
	if lookupErr != nil {
		return uuid.Nil, decimal.Zero, lookupErr
	}
	if !card.Usable(time.Now()) {
		return uuid.Nil, decimal.Zero, models.ErrGiftcardInactive
	}

	return uuid.Nil, decimal.Zero, models.ErrInsufficientBalance
}

// CreditTx credits amount back to the card, bounded by its initial balance
func (gr *GiftcardRepository) CreditTx(ctx context.Context, tx pgx.Tx, giftcardID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal

	err := tx.QueryRow(ctx, creditGiftcardQuery, giftcardID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, models.ErrConflictData
		}
		return decimal.Zero, err
	}

	return newBalance, nil
}
