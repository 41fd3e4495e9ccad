package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one symbol position inside an account.
type Holding struct {
	Symbol   string
	Quantity int64
	AvgCost  decimal.Decimal
}

// Account is the per-user ledger: spendable funds, funds reserved against
// open BUY orders, and holdings. Available + Blocked equals the account's
// total recorded balance at all times. Mutations happen only inside the
// engine's per-user critical section.
type Account struct {
	UserID    string
	Available decimal.Decimal
	Blocked   decimal.Decimal
	Holdings  map[string]Holding
	UpdatedAt time.Time
}

// NewAccount creates an empty account for a user.
func NewAccount(userID string) *Account {
	return &Account{
		UserID:    userID,
		Available: decimal.Zero,
		Blocked:   decimal.Zero,
		Holdings:  make(map[string]Holding),
	}
}

// Total returns the recorded total balance.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Blocked)
}

// Holding returns the position for a symbol, if any.
func (a *Account) Holding(symbol string) (Holding, bool) {
	h, ok := a.Holdings[symbol]
	return h, ok
}

// Block moves amount from Available to Blocked.
func (a *Account) Block(amount decimal.Decimal) error {
	if a.Available.LessThan(amount) {
		return fmt.Errorf("block %s: available %s", amount, a.Available)
	}
	a.Available = a.Available.Sub(amount)
	a.Blocked = a.Blocked.Add(amount)
	return nil
}

// Release moves amount from Blocked back to Available.
func (a *Account) Release(amount decimal.Decimal) error {
	if a.Blocked.LessThan(amount) {
		return fmt.Errorf("release %s: blocked %s", amount, a.Blocked)
	}
	a.Blocked = a.Blocked.Sub(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

// Debit removes amount from Available.
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Available.LessThan(amount) {
		return fmt.Errorf("debit %s: available %s", amount, a.Available)
	}
	a.Available = a.Available.Sub(amount)
	return nil
}

// Credit adds amount to Available.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Available = a.Available.Add(amount)
}

// ApplyBuy credits qty shares of symbol at price, recomputing the weighted
// average cost of the holding.
func (a *Account) ApplyBuy(symbol string, qty int64, price decimal.Decimal) {
	h := a.Holdings[symbol]
	h.Symbol = symbol

	oldQty := decimal.NewFromInt(h.Quantity)
	addQty := decimal.NewFromInt(qty)
	newQty := oldQty.Add(addQty)
	if newQty.IsPositive() {
		cost := h.AvgCost.Mul(oldQty).Add(price.Mul(addQty))
		h.AvgCost = cost.Div(newQty)
	}
	h.Quantity += qty
	a.Holdings[symbol] = h
}

// ApplySell debits qty shares of symbol; the holding entry is removed when
// its quantity reaches zero.
func (a *Account) ApplySell(symbol string, qty int64) error {
	h, ok := a.Holdings[symbol]
	if !ok || h.Quantity < qty {
		return fmt.Errorf("sell %d %s: held %d", qty, symbol, h.Quantity)
	}
	h.Quantity -= qty
	if h.Quantity == 0 {
		delete(a.Holdings, symbol)
		return nil
	}
	a.Holdings[symbol] = h
	return nil
}

// Clone returns an independent deep copy of the account.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Holdings = make(map[string]Holding, len(a.Holdings))
	for k, v := range a.Holdings {
		cp.Holdings[k] = v
	}
	return &cp
}
