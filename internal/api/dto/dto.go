package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlaceOrderRequest struct {
	Symbol     string          `json:"symbol" binding:"required"`
	Market     string          `json:"market" binding:"required"`
	Side       string          `json:"side" binding:"required"`
	Type       string          `json:"type" binding:"required"`
	Quantity   int64           `json:"quantity" binding:"required"`
	LimitPrice decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  decimal.Decimal `json:"stop_price,omitempty"`
	Validity   string          `json:"validity,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

type Order struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Market         string          `json:"market"`
	Side           string          `json:"side"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Quantity       int64           `json:"quantity"`
	FilledQuantity int64           `json:"filled_quantity"`
	LimitPrice     decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice      decimal.Decimal `json:"stop_price,omitempty"`
	Validity       string          `json:"validity"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	ExecutedPrice  decimal.Decimal `json:"executed_price,omitempty"`
	TotalValue     decimal.Decimal `json:"total_value,omitempty"`
	ExecutedAt     *time.Time      `json:"executed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

type Holding struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

type Account struct {
	UserID    string          `json:"user_id"`
	Available decimal.Decimal `json:"available"`
	Blocked   decimal.Decimal `json:"blocked"`
	Holdings  []Holding       `json:"holdings"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Transaction struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Market     string          `json:"market"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type Error struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
