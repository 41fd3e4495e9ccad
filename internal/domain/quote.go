package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price observation from the oracle.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Market    string          `json:"market"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
