package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string
type OrderType string
type OrderStatus string
type Validity string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	StopLoss  OrderType = "STOP_LOSS"
	StopLimit OrderType = "STOP_LIMIT"

	Pending   OrderStatus = "PENDING"
	Partial   OrderStatus = "PARTIAL"
	Filled    OrderStatus = "FILLED"
	Cancelled OrderStatus = "CANCELLED"
	Rejected  OrderStatus = "REJECTED"
	Expired   OrderStatus = "EXPIRED"

	Day Validity = "DAY"
	GTC Validity = "GTC"
	IOC Validity = "IOC"
	GTD Validity = "GTD"
)

// Order is a single trading instruction. It is created at admission and
// mutated only through execution, cancellation or expiry; it is never deleted.
type Order struct {
	ID             string
	UserID         string
	Symbol         string
	Market         string
	Side           Side
	Type           OrderType
	Quantity       int64
	FilledQuantity int64
	LimitPrice     decimal.Decimal
	StopPrice      decimal.Decimal
	Validity       Validity
	ExpiresAt      time.Time
	Status         OrderStatus

	// ReservedRate is the per-share rate blocked at admission for BUY orders.
	// The blocked amount attributable to a fill is released at this rate.
	ReservedRate decimal.Decimal

	ExecutedPrice decimal.Decimal
	TotalValue    decimal.Decimal
	ExecutedAt    time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic concurrency token; every persisted mutation
	// bumps it by one.
	Version int64
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// IsOpen reports whether the order is still awaiting execution.
func (o *Order) IsOpen() bool {
	return o.Status == Pending || o.Status == Partial
}

// IsExpired reports whether the order's validity window elapsed before now.
// Orders without an expiry instant never expire.
func (o *Order) IsExpired(now time.Time) bool {
	if o.Validity != Day && o.Validity != GTD {
		return false
	}
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case Filled, Cancelled, Rejected, Expired:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle state machine permits moving
// from one status to another. Terminal states admit nothing.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case Pending:
		switch to {
		case Partial, Filled, Cancelled, Rejected, Expired:
			return true
		}
	case Partial:
		switch to {
		case Partial, Filled, Cancelled, Expired:
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the order.
func (o *Order) Clone() *Order {
	cp := *o
	return &cp
}
