package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmarkin/tillpos/internal/middleware"
	"github.com/dmarkin/tillpos/internal/models"
	"github.com/dmarkin/tillpos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundService is the refund surface consumed by the HTTP layer
type RefundService interface {
	// CreateRefund records a refund against a payment of the order
	CreateRefund(ctx context.Context, merchantID, orderID uuid.UUID, req service.CreateRefundRequest) (*models.Refund, error)
	// ListRefunds returns refunds recorded against the order
	ListRefunds(ctx context.Context, merchantID, orderID uuid.UUID) ([]models.Refund, error)
}

// RefundHandler represents HTTP handler for refund requests
type RefundHandler struct {
	svc RefundService
}

// NewRefundHandler creates new RefundHandler instance
func NewRefundHandler(svc RefundService) *RefundHandler {
	return &RefundHandler{svc: svc}
}

type createRefundRequest struct {
	PaymentID       *uuid.UUID      `json:"paymentId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	RestockGiftCard bool            `json:"restockGiftCard,omitempty"`
}

type refundResponse struct {
	ID        uuid.UUID       `json:"id"`
	PaymentID uuid.UUID       `json:"paymentId"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	IsPartial bool            `json:"isPartial"`
	CreatedAt string          `json:"createdAt"`
}

// CreateRefund records a refund against a payment of the order
// 200 — refund created
// 400 — malformed request
// 401 — merchant is not authenticated
// 404 — order or payment not found
// 422 — amount invalid or exceeds what is refundable
// 500 — internal error
func (rh *RefundHandler) CreateRefund() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, ok := middleware.MerchantID(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "bad order id", http.StatusBadRequest)
			return
		}

		var refundReq createRefundRequest
		if err := json.NewDecoder(r.Body).Decode(&refundReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		refund, err := rh.svc.CreateRefund(r.Context(), merchantID, orderID, service.CreateRefundRequest{
			PaymentID:       refundReq.PaymentID,
			Amount:          refundReq.Amount,
			Reason:          refundReq.Reason,
			RestockGiftcard: refundReq.RestockGiftCard,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(newRefundResponse(refund)); err != nil {
			return
		}
	}
}

// ListRefunds returns the refunds recorded against the order
// 200 — refunds returned
// 204 — no refunds recorded
// 401 — merchant is not authenticated
// 404 — order not found
// 500 — internal error
func (rh *RefundHandler) ListRefunds() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, ok := middleware.MerchantID(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, "bad order id", http.StatusBadRequest)
			return
		}

		refunds, err := rh.svc.ListRefunds(r.Context(), merchantID, orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		if len(refunds) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		resp := make([]refundResponse, 0, len(refunds))
		for _, refund := range refunds {
			resp = append(resp, newRefundResponse(&refund))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

func newRefundResponse(refund *models.Refund) refundResponse {
	return refundResponse{
		ID:        refund.ID,
		PaymentID: refund.PaymentID,
		Amount:    refund.Amount,
		Reason:    refund.Reason,
		IsPartial: refund.IsPartial,
		CreatedAt: refund.CreatedAt.Format(time.RFC3339),
	}
}
