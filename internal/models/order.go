package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// order status
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusClosed    = "CLOSED"
	OrderStatusCancelled = "CANCELLED"
)

// order item kind
const (
	ItemKindProduct     = "PRODUCT"
	ItemKindService     = "SERVICE"
	ItemKindReservation = "RESERVATION"
)

// Order is order entity. Items, payments and refunds are loaded through
// repository lookups, never embedded as a navigable object graph.
type Order struct {
	ID                  uuid.UUID
	MerchantID          uuid.UUID
	Status              string
	Currency            string
	DiscountAmount      *decimal.Decimal
	ServiceChargeAmount *decimal.Decimal
	CreatedAt           time.Time
	ClosedAt            *time.Time
	CancelledAt         *time.Time
}

// OrderItem is a single order line. Kind tells which catalog entity RefID
// points at; UnitPrice and TaxCategoryID are resolved at load time from
// that entity, not cached on the row.
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Kind          string
	RefID         uuid.UUID
	Quantity      int32
	UnitPrice     decimal.Decimal
	TaxCategoryID *uuid.UUID
}

// tip source
const (
	TipSourceCash = "CASH"
	TipSourceCard = "CARD"
)

// OrderTip is an optional tip collected on top of total due. It is not taxed.
type OrderTip struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Source  string
	Amount  decimal.Decimal
}

// TaxLine is tax accumulated for one tax category
type TaxLine struct {
	TaxCategoryID uuid.UUID
	CategoryName  string
	RatePercent   decimal.Decimal
	Amount        decimal.Decimal
}

// Totals is the result of totals calculation over an order
type Totals struct {
	Subtotal      decimal.Decimal
	TaxBreakdown  []TaxLine
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	ServiceCharge decimal.Decimal
	Tip           decimal.Decimal
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Remaining     decimal.Decimal
}
