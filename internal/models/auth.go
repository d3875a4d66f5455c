package models

import "github.com/google/uuid"

// TokenPayload is merchant identity extracted from an auth token
type TokenPayload struct {
	MerchantID uuid.UUID
}
