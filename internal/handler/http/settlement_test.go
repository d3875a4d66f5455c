package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmarkin/tillpos/internal/handler/http/mocks"
	"github.com/dmarkin/tillpos/internal/middleware"
	"github.com/dmarkin/tillpos/internal/models"
	"github.com/dmarkin/tillpos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

// orderRequest builds an authenticated request with the order id routed
// the way chi delivers it
func orderRequest(method, target, body string, merchantID, orderID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	ctx := middleware.WithMerchantID(req.Context(), merchantID)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", orderID.String())
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

func TestSettlementHandler_GetOrderTotals(t *testing.T) {
	merchantID := uuid.New()
	orderID := uuid.New()

	totals := &models.Totals{
		Subtotal:     decimal.RequireFromString("100.00"),
		TaxBreakdown: []models.TaxLine{},
		Tax:          decimal.RequireFromString("21.00"),
		Total:        decimal.RequireFromString("121.00"),
		Remaining:    decimal.RequireFromString("121.00"),
	}

	tests := []struct {
		name           string
		setup          func(t *testing.T) *mocks.MockSettlementService
		wantStatusCode int
		wantBody       *totalsResponse
	}{
		{
			// 200 — totals computed
			name: "valid_request_return_200",
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().Totals(gomock.Any(), merchantID, orderID).Return(totals, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody: &totalsResponse{
				Subtotal:     decimal.RequireFromString("100.00"),
				TaxBreakdown: []taxLineResponse{},
				Tax:          decimal.RequireFromString("21.00"),
				Total:        decimal.RequireFromString("121.00"),
				Remaining:    decimal.RequireFromString("121.00"),
			},
		},
		{
			// 404 — order not found
			name: "unknown_order_return_404",
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().Totals(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrOrderNotFound).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// 422 — no applicable tax rate
			name: "no_applicable_rate_return_422",
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().Totals(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrNoApplicableRate).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := orderRequest(http.MethodGet, "/api/orders/"+orderID.String()+"/totals", "", merchantID, orderID)
			w := httptest.NewRecorder()

			handler := NewSettlementHandler(tt.setup(t))
			h := handler.GetOrderTotals()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantBody != nil {
				resBody, err := io.ReadAll(res.Body)
				require.NoError(t, err)

				var got totalsResponse
				require.NoError(t, json.Unmarshal(resBody, &got))

				if diff := cmp.Diff(*tt.wantBody, got, decimalComparer); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestSettlementHandler_CloseOrder(t *testing.T) {
	merchantID := uuid.New()
	orderID := uuid.New()

	closedResult := &service.CloseOrderResult{
		Order: &models.Order{
			ID:       orderID,
			Status:   models.OrderStatusClosed,
			Currency: models.CurrencyEUR,
		},
		Payments: []models.Payment{
			{ID: uuid.New(), Method: models.MethodCash, Amount: decimal.RequireFromString("50.00"), Currency: "EUR", Status: models.PaymentStatusSucceeded},
		},
		Totals: &models.Totals{Total: decimal.RequireFromString("45.00")},
		Change: decimal.RequireFromString("5.00"),
	}

	cashBody := `{"payments":[{"method":"CASH","amount":"50.00","currency":"EUR"}]}`

	tests := []struct {
		name           string
		body           string
		setup          func(t *testing.T) *mocks.MockSettlementService
		wantStatusCode int
		check          func(t *testing.T, resBody []byte)
	}{
		{
			// 200 — order closed with change
			name: "cash_close_return_200",
			body: cashBody,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CloseOrder(gomock.Any(), merchantID, orderID, gomock.Any()).Return(closedResult, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			check: func(t *testing.T, resBody []byte) {
				var got closeOrderResponse
				require.NoError(t, json.Unmarshal(resBody, &got))
				assert.Equal(t, models.OrderStatusClosed, got.Order.Status)
				require.NotNil(t, got.Change)
				assert.True(t, got.Change.Equal(decimal.RequireFromString("5.00")))
				assert.Len(t, got.Payments, 1)
			},
		},
		{
			// 200 — 3-D Secure required, order stays open
			name: "requires_3ds_return_200",
			body: `{"payments":[{"method":"CARD","amount":"30.00","currency":"EUR","provider":"stripe","idempotencyKey":"` + uuid.New().String() + `"}]}`,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CloseOrder(gomock.Any(), merchantID, orderID, gomock.Any()).Return(&service.CloseOrderResult{
					Order:           &models.Order{ID: orderID, Status: models.OrderStatusOpen, Currency: models.CurrencyEUR},
					Requires3DS:     true,
					PaymentIntentID: "pi_3ds",
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			check: func(t *testing.T, resBody []byte) {
				var got closeOrderResponse
				require.NoError(t, json.Unmarshal(resBody, &got))
				assert.True(t, got.Requires3DS)
				assert.Equal(t, "pi_3ds", got.PaymentIntentID)
				assert.Equal(t, models.OrderStatusOpen, got.Order.Status)
			},
		},
		{
			// 400 — malformed request body
			name: "bad_json_return_400",
			body: `{"payments":`,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()
				return mocks.NewMockSettlementService(ctrl)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 409 — the order is already closed
			name: "already_closed_return_409",
			body: cashBody,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CloseOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrOrderAlreadyClosed).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			// 409 — a concurrent close won the order row
			name: "lost_close_race_return_409",
			body: cashBody,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CloseOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrConcurrencyConflict).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			// 422 — validation rejected a payment
			name: "validation_error_return_422",
			body: cashBody,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CloseOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.NewValidationError("cash overpayment is only allowed on the final payment")).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			// 502 — gateway unreachable
			name: "gateway_error_return_502",
			body: cashBody,
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CloseOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, &models.GatewayError{Message: "timeout"}).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := orderRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/close", tt.body, merchantID, orderID)
			w := httptest.NewRecorder()

			handler := NewSettlementHandler(tt.setup(t))
			h := handler.CloseOrder()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.check != nil {
				resBody, err := io.ReadAll(res.Body)
				require.NoError(t, err)
				tt.check(t, resBody)
			}
		})
	}
}

func TestSettlementHandler_CloseOrderSplit(t *testing.T) {
	merchantID := uuid.New()
	orderID := uuid.New()
	itemID := uuid.New()

	body := `{"splits":[{"orderItemIds":["` + itemID.String() + `"],"method":"CASH","currency":"EUR"}]}`

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svcMock := mocks.NewMockSettlementService(ctrl)
	svcMock.EXPECT().CloseOrderSplit(gomock.Any(), merchantID, orderID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, req service.SplitCloseRequest) (*service.CloseOrderResult, error) {
			require.Len(t, req.Splits, 1)
			assert.Equal(t, []uuid.UUID{itemID}, req.Splits[0].OrderItemIDs)
			assert.Equal(t, models.MethodCash, req.Splits[0].Method)
			return &service.CloseOrderResult{
				Order: &models.Order{ID: orderID, Status: models.OrderStatusClosed, Currency: models.CurrencyEUR},
			}, nil
		})

	req := orderRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/close/split", body, merchantID, orderID)
	w := httptest.NewRecorder()

	handler := NewSettlementHandler(svcMock)
	h := handler.CloseOrderSplit()
	h(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSettlementHandler_CancelOrder(t *testing.T) {
	merchantID := uuid.New()
	orderID := uuid.New()

	tests := []struct {
		name           string
		setup          func(t *testing.T) *mocks.MockSettlementService
		wantStatusCode int
	}{
		{
			// 200 — order cancelled
			name: "valid_request_return_200",
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CancelOrder(gomock.Any(), merchantID, orderID).Return(&models.Order{
					ID:       orderID,
					Status:   models.OrderStatusCancelled,
					Currency: models.CurrencyEUR,
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// 409 — succeeded payments block cancellation
			name: "order_has_payments_return_409",
			setup: func(t *testing.T) *mocks.MockSettlementService {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockSettlementService(ctrl)
				svcMock.EXPECT().CancelOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrOrderHasPayments).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := orderRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/cancel", "", merchantID, orderID)
			w := httptest.NewRecorder()

			handler := NewSettlementHandler(tt.setup(t))
			h := handler.CancelOrder()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}
