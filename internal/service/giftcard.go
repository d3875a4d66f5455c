package service

import (
	"context"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
)

// GiftcardService serves gift card lookups for the tender flow
type GiftcardService struct {
	repo GiftcardReader
}

// NewGiftcardService creates new GiftcardService instance
func NewGiftcardService(repo GiftcardReader) *GiftcardService {
	return &GiftcardService{repo: repo}
}

// GetByCode returns the merchant's gift card by code
func (gs *GiftcardService) GetByCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Giftcard, error) {
	return gs.repo.GetByCode(ctx, merchantID, code)
}
