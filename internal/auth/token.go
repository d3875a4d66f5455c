package auth

import (
	"errors"
	"time"

	"github.com/dmarkin/tillpos/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenLifetime = 24 * time.Hour

var errInvalidToken = errors.New("invalid auth token")

type claims struct {
	jwt.RegisteredClaims
	MerchantID string `json:"merchant_id"`
}

// AuthToken issues and verifies merchant-scoped tokens. Identity itself is
// managed outside this service; the token only carries tenancy.
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken instance with signing key
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

// CreateToken creates a signed token for the merchant
func (at *AuthToken) CreateToken(merchantID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
		MerchantID: merchantID.String(),
	})

	return token.SignedString(at.key)
}

// VerifyToken parses the token and extracts the merchant payload
func (at *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return at.key, nil
	})
	if err != nil {
		return nil, err
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errInvalidToken
	}

	merchantID, err := uuid.Parse(tokenClaims.MerchantID)
	if err != nil {
		return nil, errInvalidToken
	}

	return &models.TokenPayload{MerchantID: merchantID}, nil
}
