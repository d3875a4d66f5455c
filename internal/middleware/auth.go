package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
)

type contextKey int

const (
	contextKeyMerchantID contextKey = iota
)

// TokenVerifier is interface for verifying merchant auth tokens
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// Auth extracts the bearer token, verifies it and puts the merchant id
// into the request context
func Auth(tv TokenVerifier) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			payload, err := tv.VerifyToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyMerchantID, payload.MerchantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MerchantID extracts the authenticated merchant id from the context
func MerchantID(ctx context.Context) (uuid.UUID, bool) {
	merchantID, ok := ctx.Value(contextKeyMerchantID).(uuid.UUID)
	return merchantID, ok
}

// WithMerchantID returns a context carrying the merchant id, used by tests
func WithMerchantID(ctx context.Context, merchantID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKeyMerchantID, merchantID)
}
