package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxCategory is a merchant-scoped tax category owning effective-dated rates
type TaxCategory struct {
	ID         uuid.UUID
	MerchantID uuid.UUID
	Name       string
}

// TaxRate is one effective-dated entry of a category's rate history.
// The rate applies on the half-open interval [EffectiveFrom, EffectiveTo);
// a nil EffectiveTo means the entry is open-ended. Intervals within one
// category never overlap.
type TaxRate struct {
	ID            uuid.UUID
	TaxCategoryID uuid.UUID
	RatePercent   decimal.Decimal
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// Covers reports whether the rate's interval contains the instant
func (r *TaxRate) Covers(at time.Time) bool {
	if at.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && !at.Before(*r.EffectiveTo) {
		return false
	}
	return true
}
