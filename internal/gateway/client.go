package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeResult is the processor's answer to a charge request
type ChargeResult struct {
	Success         bool
	PaymentIntentID string
	TransactionID   string
	Requires3DS     bool
	ErrorMessage    string
}

// Client is HTTP client for the external card payment processor. Charges are
// idempotent on the caller-supplied key: replaying a key never captures twice.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates new card gateway Client instance
func NewClient(baseURL string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

type chargeRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Provider string `json:"provider"`
}

type chargeResponse struct {
	Success         bool   `json:"success"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
	Requires3DS     bool   `json:"requires_3ds"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

// Charge submits a charge to the processor.
// POST /api/charges with the idempotency key in the Idempotency-Key header.
func (c *Client) Charge(ctx context.Context, amount decimal.Decimal, currency, provider string, idempotencyKey uuid.UUID) (*ChargeResult, error) {
	url, err := url.JoinPath(c.baseURL, "api", "charges")
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chargeRequest{
		Amount:   amount.StringFixed(2),
		Currency: currency,
		Provider: provider,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey.String())

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, &models.GatewayError{Message: "charge request failed", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.GatewayError{Message: "unexpected status " + resp.Status}
	}

	chargeResp := chargeResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return nil, &models.GatewayError{Message: "decoding charge response", Err: err}
	}

	return &ChargeResult{
		Success:         chargeResp.Success,
		PaymentIntentID: chargeResp.PaymentIntentID,
		TransactionID:   chargeResp.TransactionID,
		Requires3DS:     chargeResp.Requires3DS,
		ErrorMessage:    chargeResp.ErrorMessage,
	}, nil
}

// Status queries the outcome of a previously submitted charge by its
// idempotency key. The gateway is the source of truth for whether a
// timed-out charge actually captured.
// GET /api/charges/{idempotencyKey}
func (c *Client) Status(ctx context.Context, idempotencyKey uuid.UUID) (*ChargeResult, error) {
	url, err := url.JoinPath(c.baseURL, "api", "charges", idempotencyKey.String())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, &models.GatewayError{Message: "status request failed", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		chargeResp := chargeResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
			return nil, &models.GatewayError{Message: "decoding status response", Err: err}
		}
		return &ChargeResult{
			Success:         chargeResp.Success,
			PaymentIntentID: chargeResp.PaymentIntentID,
			TransactionID:   chargeResp.TransactionID,
			Requires3DS:     chargeResp.Requires3DS,
			ErrorMessage:    chargeResp.ErrorMessage,
		}, nil
	case http.StatusNotFound:
		return nil, models.ErrDataNotFound
	default:
		return nil, &models.GatewayError{Message: "unexpected status " + resp.Status}
	}
}
