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

// SettlementService is the close/cancel surface consumed by the HTTP layer
type SettlementService interface {
	// Totals computes a preview of what the order currently owes
	Totals(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Totals, error)
	// CloseOrder validates and applies payments and closes the order
	CloseOrder(ctx context.Context, merchantID, orderID uuid.UUID, req service.CloseOrderRequest) (*service.CloseOrderResult, error)
	// CloseOrderSplit closes the order with items split across methods
	CloseOrderSplit(ctx context.Context, merchantID, orderID uuid.UUID, req service.SplitCloseRequest) (*service.CloseOrderResult, error)
	// CancelOrder cancels an open order without succeeded payments
	CancelOrder(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error)
}

// SettlementHandler represents HTTP handler for order settlement requests
type SettlementHandler struct {
	svc SettlementService
}

// NewSettlementHandler creates new SettlementHandler instance
func NewSettlementHandler(svc SettlementService) *SettlementHandler {
	return &SettlementHandler{svc: svc}
}

type paymentInput struct {
	Method         string          `json:"method"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Provider       string          `json:"provider,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	GiftCardCode   string          `json:"giftCardCode,omitempty"`
}

type tipInput struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

type closeOrderRequest struct {
	Payments            []paymentInput   `json:"payments"`
	Tip                 *tipInput        `json:"tip,omitempty"`
	DiscountAmount      *decimal.Decimal `json:"discountAmount,omitempty"`
	ServiceChargeAmount *decimal.Decimal `json:"serviceChargeAmount,omitempty"`
}

type splitInput struct {
	OrderItemIDs   []uuid.UUID `json:"orderItemIds"`
	Method         string      `json:"method"`
	Currency       string      `json:"currency"`
	Provider       string      `json:"provider,omitempty"`
	IdempotencyKey string      `json:"idempotencyKey,omitempty"`
	GiftCardCode   string      `json:"giftCardCode,omitempty"`
}

type splitCloseRequest struct {
	Splits              []splitInput     `json:"splits"`
	Tip                 *tipInput        `json:"tip,omitempty"`
	DiscountAmount      *decimal.Decimal `json:"discountAmount,omitempty"`
	ServiceChargeAmount *decimal.Decimal `json:"serviceChargeAmount,omitempty"`
}

type orderResponse struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	ClosedAt    *string   `json:"closedAt,omitempty"`
	CancelledAt *string   `json:"cancelledAt,omitempty"`
}

type taxLineResponse struct {
	TaxCategoryID uuid.UUID       `json:"taxCategoryId"`
	Category      string          `json:"category"`
	RatePercent   decimal.Decimal `json:"ratePercent"`
	Amount        decimal.Decimal `json:"amount"`
}

type totalsResponse struct {
	Subtotal      decimal.Decimal   `json:"subtotal"`
	TaxBreakdown  []taxLineResponse `json:"taxBreakdown"`
	Tax           decimal.Decimal   `json:"tax"`
	Discount      decimal.Decimal   `json:"discount"`
	ServiceCharge decimal.Decimal   `json:"serviceCharge"`
	Tip           decimal.Decimal   `json:"tip"`
	Total         decimal.Decimal   `json:"total"`
	Paid          decimal.Decimal   `json:"paid"`
	Remaining     decimal.Decimal   `json:"remaining"`
}

type paymentResponse struct {
	ID       uuid.UUID       `json:"id"`
	Method   string          `json:"method"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

type closeOrderResponse struct {
	Order           orderResponse     `json:"order"`
	Totals          *totalsResponse   `json:"totals,omitempty"`
	Payments        []paymentResponse `json:"payments,omitempty"`
	Change          *decimal.Decimal  `json:"change,omitempty"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	Requires3DS     bool              `json:"requires3DS,omitempty"`
}

// GetOrderTotals returns the order's current totals
// 200 — totals computed
// 401 — merchant is not authenticated
// 404 — order not found
// 422 — no applicable tax rate
// 500 — internal error
func (sh *SettlementHandler) GetOrderTotals() http.HandlerFunc {
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

		totals, err := sh.svc.Totals(r.Context(), merchantID, orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(newTotalsResponse(totals)); err != nil {
			return
		}
	}
}

// CloseOrder settles the order with the submitted payments
// 200 — order closed, or 3-D Secure required (order stays open)
// 400 — malformed request
// 401 — merchant is not authenticated
// 404 — order or gift card not found
// 409 — order already closed or cancelled, or a lost settlement race
// 422 — a payment was rejected by validation or business rules
// 502 — card gateway unavailable
// 500 — internal error
func (sh *SettlementHandler) CloseOrder() http.HandlerFunc {
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

		var closeReq closeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&closeReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		req, err := newCloseOrderRequest(closeReq)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := sh.svc.CloseOrder(r.Context(), merchantID, orderID, *req)
		if err != nil {
			writeError(w, err)
			return
		}

		writeCloseResult(w, result)
	}
}

// CloseOrderSplit settles the order with items split across payment methods
// status codes match CloseOrder
func (sh *SettlementHandler) CloseOrderSplit() http.HandlerFunc {
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

		var splitReq splitCloseRequest
		if err := json.NewDecoder(r.Body).Decode(&splitReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		req, err := newSplitCloseRequest(splitReq)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := sh.svc.CloseOrderSplit(r.Context(), merchantID, orderID, *req)
		if err != nil {
			writeError(w, err)
			return
		}

		writeCloseResult(w, result)
	}
}

// CancelOrder cancels an open order without succeeded payments
// 200 — order cancelled
// 401 — merchant is not authenticated
// 404 — order not found
// 409 — order not open, or it holds succeeded payments
// 500 — internal error
func (sh *SettlementHandler) CancelOrder() http.HandlerFunc {
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

		order, err := sh.svc.CancelOrder(r.Context(), merchantID, orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(closeOrderResponse{Order: newOrderResponse(order)}); err != nil {
			return
		}
	}
}

func newCloseOrderRequest(req closeOrderRequest) (*service.CloseOrderRequest, error) {
	payments := make([]models.PaymentRequest, 0, len(req.Payments))
	for _, p := range req.Payments {
		payment, err := newPaymentRequest(p)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	out := service.CloseOrderRequest{
		Payments:            payments,
		DiscountAmount:      req.DiscountAmount,
		ServiceChargeAmount: req.ServiceChargeAmount,
	}
	if req.Tip != nil {
		out.Tip = &service.TipInput{Source: req.Tip.Source, Amount: req.Tip.Amount}
	}

	return &out, nil
}

func newPaymentRequest(p paymentInput) (*models.PaymentRequest, error) {
	payment := models.PaymentRequest{
		Method:   p.Method,
		Amount:   p.Amount,
		Currency: p.Currency,
	}

	switch p.Method {
	case models.MethodCard:
		key := uuid.Nil
		if p.IdempotencyKey != "" {
			parsed, err := uuid.Parse(p.IdempotencyKey)
			if err != nil {
				return nil, err
			}
			key = parsed
		}
		payment.Card = &models.CardDetails{Provider: p.Provider, IdempotencyKey: key}
	case models.MethodGiftcard:
		payment.Giftcard = &models.GiftcardDetails{Code: p.GiftCardCode}
	}

	return &payment, nil
}

func newSplitCloseRequest(req splitCloseRequest) (*service.SplitCloseRequest, error) {
	splits := make([]service.SplitGroup, 0, len(req.Splits))
	for _, s := range req.Splits {
		group := service.SplitGroup{
			OrderItemIDs: s.OrderItemIDs,
			Method:       s.Method,
			Currency:     s.Currency,
			Provider:     s.Provider,
			GiftcardCode: s.GiftCardCode,
		}
		if s.IdempotencyKey != "" {
			key, err := uuid.Parse(s.IdempotencyKey)
			if err != nil {
				return nil, err
			}
			group.IdempotencyKey = key
		}
		splits = append(splits, group)
	}

	out := service.SplitCloseRequest{
		Splits:              splits,
		DiscountAmount:      req.DiscountAmount,
		ServiceChargeAmount: req.ServiceChargeAmount,
	}
	if req.Tip != nil {
		out.Tip = &service.TipInput{Source: req.Tip.Source, Amount: req.Tip.Amount}
	}

	return &out, nil
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:       order.ID,
		Status:   order.Status,
		Currency: order.Currency,
	}
	if order.ClosedAt != nil {
		closedAt := order.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closedAt
	}
	if order.CancelledAt != nil {
		cancelledAt := order.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}
	return resp
}

func newTotalsResponse(totals *models.Totals) totalsResponse {
	breakdown := make([]taxLineResponse, 0, len(totals.TaxBreakdown))
	for _, line := range totals.TaxBreakdown {
		breakdown = append(breakdown, taxLineResponse{
			TaxCategoryID: line.TaxCategoryID,
			Category:      line.CategoryName,
			RatePercent:   line.RatePercent,
			Amount:        line.Amount,
		})
	}

	return totalsResponse{
		Subtotal:      totals.Subtotal,
		TaxBreakdown:  breakdown,
		Tax:           totals.Tax,
		Discount:      totals.Discount,
		ServiceCharge: totals.ServiceCharge,
		Tip:           totals.Tip,
		Total:         totals.Total,
		Paid:          totals.Paid,
		Remaining:     totals.Remaining,
	}
}

func writeCloseResult(w http.ResponseWriter, result *service.CloseOrderResult) {
	resp := closeOrderResponse{
		Order:           newOrderResponse(result.Order),
		PaymentIntentID: result.PaymentIntentID,
		Requires3DS:     result.Requires3DS,
	}

	if result.Totals != nil {
		totals := newTotalsResponse(result.Totals)
		resp.Totals = &totals
	}
	for _, payment := range result.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:       payment.ID,
			Method:   payment.Method,
			Amount:   payment.Amount,
			Currency: payment.Currency,
			Status:   payment.Status,
		})
	}
	if result.Change.IsPositive() {
		change := result.Change
		resp.Change = &change
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return
	}
}
