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
	selectRateAtQuery = `
						SELECT r.id, r.tax_category_id, r.rate_percent, r.effective_from, r.effective_to
						FROM tax_rates r
						JOIN tax_categories c ON c.id = r.tax_category_id
						WHERE r.tax_category_id = $1
						  AND NOT r.is_deleted
						  AND NOT c.is_deleted
						  AND r.effective_from <= $2
						  AND (r.effective_to IS NULL OR r.effective_to > $2)
`
	selectTaxCategoryQuery = `
						SELECT id, merchant_id, name FROM tax_categories
						WHERE id = $1 AND NOT is_deleted
`
)

// TaxRateRepository implements read access to effective-dated tax rates
type TaxRateRepository struct {
	db *postgres.DB
}

// NewTaxRateRepository creates new TaxRateRepository instance
func NewTaxRateRepository(db *postgres.DB) *TaxRateRepository {
	return &TaxRateRepository{db: db}
}

// RateAt returns the rate whose interval covers the instant. Intervals of a
// category never overlap, so at most one row matches.
func (tr *TaxRateRepository) RateAt(ctx context.Context, categoryID uuid.UUID, at time.Time) (*models.TaxRate, error) {
	rate := models.TaxRate{}
	err := tr.db.QueryRow(ctx, selectRateAtQuery, categoryID, at).Scan(
		&rate.ID, &rate.TaxCategoryID, &rate.RatePercent, &rate.EffectiveFrom, &rate.EffectiveTo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNoApplicableRate
		}
		return nil, err
	}

	return &rate, nil
}

// GetTaxCategory returns tax category by id
func (tr *TaxRateRepository) GetTaxCategory(ctx context.Context, categoryID uuid.UUID) (*models.TaxCategory, error) {
	category := models.TaxCategory{}
	err := tr.db.QueryRow(ctx, selectTaxCategoryQuery, categoryID).Scan(
		&category.ID, &category.MerchantID, &category.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &category, nil
}
