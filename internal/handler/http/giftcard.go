package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmarkin/tillpos/internal/middleware"
	"github.com/dmarkin/tillpos/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GiftcardService is the gift card surface consumed by the HTTP layer
type GiftcardService interface {
	// GetByCode returns the merchant's gift card by code
	GetByCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Giftcard, error)
}

// GiftcardHandler represents HTTP handler for gift card lookups
type GiftcardHandler struct {
	svc GiftcardService
}

// NewGiftcardHandler creates new GiftcardHandler instance
func NewGiftcardHandler(svc GiftcardService) *GiftcardHandler {
	return &GiftcardHandler{svc: svc}
}

type giftcardResponse struct {
	Code           string          `json:"code"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	ExpiresAt      *string         `json:"expiresAt,omitempty"`
	IsActive       bool            `json:"isActive"`
}

// GetGiftcard returns the gift card's balance and state
// 200 — card returned
// 401 — merchant is not authenticated
// 404 — card not found
// 500 — internal error
func (gh *GiftcardHandler) GetGiftcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, ok := middleware.MerchantID(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		code := chi.URLParam(r, "code")
		if code == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		card, err := gh.svc.GetByCode(r.Context(), merchantID, code)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := giftcardResponse{
			Code:           card.Code,
			InitialBalance: card.InitialBalance,
			Balance:        card.Balance,
			IsActive:       card.IsActive,
		}
		if card.ExpiresAt != nil {
			expiresAt := card.ExpiresAt.Format(time.RFC3339)
			resp.ExpiresAt = &expiresAt
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}
