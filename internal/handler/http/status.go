package handler

import (
	"errors"
	"net/http"

	"github.com/dmarkin/tillpos/internal/models"
)

// writeError maps engine errors to HTTP statuses. Business-rule rejections
// carry their reason to the caller; anything unexpected stays opaque.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var gatewayErr *models.GatewayError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Reason, http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrPaymentNotFound),
		errors.Is(err, models.ErrGiftcardNotFound),
		errors.Is(err, models.ErrDataNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrOrderAlreadyClosed),
		errors.Is(err, models.ErrOrderCancelled),
		errors.Is(err, models.ErrOrderHasPayments),
		errors.Is(err, models.ErrConcurrencyConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrUnsupportedCurrency),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrGiftcardInactive),
		errors.Is(err, models.ErrNoApplicableRate),
		errors.Is(err, models.ErrRefundExceedsTotal):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &gatewayErr):
		http.Error(w, "card gateway unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
