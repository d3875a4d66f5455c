package service

import (
	"context"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
)

// TaxRateRepository is interface for interacting with tax-rate data
type TaxRateRepository interface {
	// RateAt returns the rate whose effective interval covers the instant
	RateAt(ctx context.Context, categoryID uuid.UUID, at time.Time) (*models.TaxRate, error)
	// GetTaxCategory returns tax category by id
	GetTaxCategory(ctx context.Context, categoryID uuid.UUID) (*models.TaxCategory, error)
}

// TaxRateResolver resolves the applicable percentage rate of a tax category
// at a point in time from its effective-dated rate history
type TaxRateResolver struct {
	repo TaxRateRepository
}

// NewTaxRateResolver creates new TaxRateResolver instance
func NewTaxRateResolver(repo TaxRateRepository) *TaxRateResolver {
	return &TaxRateResolver{repo: repo}
}

// RateAt returns the rate entry applicable to the category at the instant.
// An instant no interval covers is a hard error, never a silent zero rate.
func (tr *TaxRateResolver) RateAt(ctx context.Context, categoryID uuid.UUID, at time.Time) (*models.TaxRate, error) {
	return tr.repo.RateAt(ctx, categoryID, at)
}

// CategoryName returns the category's display name for tax breakdown lines
func (tr *TaxRateResolver) CategoryName(ctx context.Context, categoryID uuid.UUID) (string, error) {
	category, err := tr.repo.GetTaxCategory(ctx, categoryID)
	if err != nil {
		return "", err
	}
	return category.Name, nil
}
