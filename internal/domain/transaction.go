package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the immutable record appended once per execution event.
type Transaction struct {
	ID         string
	UserID     string
	OrderID    string
	Symbol     string
	Market     string
	Side       Side
	Quantity   int64
	Price      decimal.Decimal
	Total      decimal.Decimal
	ExecutedAt time.Time
}
