package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

// Submission is a request to place one order.
type Submission struct {
	UserID     string
	Symbol     string
	Market     string
	Side       domain.Side
	Type       domain.OrderType
	Quantity   int64
	LimitPrice decimal.Decimal
	StopPrice  decimal.Decimal
	Validity   domain.Validity
	ExpiresAt  time.Time
}

// PlaceOrder validates and admits a submission: funds or holdings are
// reserved, the order is persisted as PENDING, and MARKET (and executable
// IOC) orders are executed synchronously with the admission quote. Rejections
// leave no side effects.
func (e *Engine) PlaceOrder(ctx context.Context, sub Submission) (*domain.Order, error) {
	sub.Symbol = strings.ToUpper(strings.TrimSpace(sub.Symbol))
	if sub.Validity == "" {
		sub.Validity = domain.GTC
	}
	if err := e.validate(sub); err != nil {
		return nil, err
	}

	now := e.now()
	if sub.Type == domain.Market && !e.calendar.IsOpen(sub.Market, now) {
		return nil, errs.Newf(errs.KindMarketClosed, "market %s is closed; resubmit as a LIMIT order", sub.Market)
	}

	quote, err := e.oracle.GetQuote(ctx, sub.Symbol, sub.Market)
	if err != nil {
		return nil, errs.Wrap(errs.KindQuoteUnavailable, "admission quote", err)
	}
	if quote == nil || quote.Price.Sign() <= 0 {
		return nil, errs.Newf(errs.KindQuoteUnavailable, "no quote for %s/%s", sub.Market, sub.Symbol)
	}

	order, err := e.admit(ctx, sub, quote, now)
	if err != nil {
		return nil, err
	}

	switch {
	case sub.Type == domain.Market:
		executed, err := e.execute(ctx, order.ID, quote, order.Quantity)
		if err != nil {
			// The reservation stands; the evaluator retries market orders on
			// the next cycle.
			return nil, errs.Wrap(errs.KindInternal, "market order admitted but execution failed", err)
		}
		return executed, nil
	case sub.Validity == domain.IOC:
		if triggerSatisfied(order, quote.Price) {
			return e.execute(ctx, order.ID, quote, order.Quantity)
		}
		// IOC orders never rest.
		return e.releaseAndClose(ctx, order.ID, domain.Cancelled)
	}
	return order, nil
}

func (e *Engine) validate(sub Submission) error {
	if sub.UserID == "" {
		return errs.New(errs.KindValidation, "user is required")
	}
	if sub.Symbol == "" {
		return errs.New(errs.KindValidation, "symbol is required")
	}
	if sub.Market == "" {
		return errs.New(errs.KindValidation, "market is required")
	}
	if sub.Quantity < 1 {
		return errs.New(errs.KindValidation, "quantity must be at least 1")
	}

	switch sub.Side {
	case domain.Buy, domain.Sell:
	default:
		return errs.Newf(errs.KindValidation, "invalid side: %s", sub.Side)
	}

	wantLimit := sub.Type == domain.Limit || sub.Type == domain.StopLimit
	wantStop := sub.Type == domain.StopLoss || sub.Type == domain.StopLimit
	switch sub.Type {
	case domain.Market, domain.Limit, domain.StopLoss, domain.StopLimit:
	default:
		return errs.Newf(errs.KindValidation, "invalid order type: %s", sub.Type)
	}
	if wantLimit && sub.LimitPrice.Sign() <= 0 {
		return errs.Newf(errs.KindValidation, "%s orders require a positive limit price", sub.Type)
	}
	if !wantLimit && sub.LimitPrice.Sign() != 0 {
		return errs.Newf(errs.KindValidation, "%s orders take no limit price", sub.Type)
	}
	if wantStop && sub.StopPrice.Sign() <= 0 {
		return errs.Newf(errs.KindValidation, "%s orders require a positive stop price", sub.Type)
	}
	if !wantStop && sub.StopPrice.Sign() != 0 {
		return errs.Newf(errs.KindValidation, "%s orders take no stop price", sub.Type)
	}

	switch sub.Validity {
	case domain.Day, domain.GTC, domain.IOC:
		if !sub.ExpiresAt.IsZero() {
			return errs.Newf(errs.KindValidation, "%s orders take no expiry instant", sub.Validity)
		}
	case domain.GTD:
		if sub.ExpiresAt.IsZero() {
			return errs.New(errs.KindValidation, "GTD orders require an expiry instant")
		}
		if !sub.ExpiresAt.After(e.now()) {
			return errs.New(errs.KindValidation, "GTD expiry must be in the future")
		}
	default:
		return errs.Newf(errs.KindValidation, "invalid validity: %s", sub.Validity)
	}
	return nil
}

// admit reserves funds or holdings and persists the PENDING order, all inside
// the user's critical section.
func (e *Engine) admit(ctx context.Context, sub Submission, quote *domain.Quote, now time.Time) (*domain.Order, error) {
	unlock := e.locks.lock(sub.UserID)
	defer unlock()

	account, err := e.repo.FindAccount(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:         uuid.NewString(),
		UserID:     sub.UserID,
		Symbol:     sub.Symbol,
		Market:     sub.Market,
		Side:       sub.Side,
		Type:       sub.Type,
		Quantity:   sub.Quantity,
		LimitPrice: sub.LimitPrice,
		StopPrice:  sub.StopPrice,
		Validity:   sub.Validity,
		ExpiresAt:  e.expiryFor(sub, now),
		Status:     domain.Pending,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}

	switch sub.Side {
	case domain.Buy:
		rate := reservationRate(sub, quote.Price)
		required := rate.Mul(decimal.NewFromInt(sub.Quantity))
		if err := account.Block(required); err != nil {
			return nil, errs.Newf(errs.KindInsufficientFunds,
				"available %s, required %s for %d %s", account.Available, required, sub.Quantity, sub.Symbol)
		}
		order.ReservedRate = rate
	case domain.Sell:
		held, _ := account.Holding(sub.Symbol)
		committed, err := e.repo.OpenSellQuantity(ctx, sub.UserID, sub.Symbol)
		if err != nil {
			return nil, err
		}
		if held.Quantity-committed < sub.Quantity {
			return nil, errs.Newf(errs.KindInsufficientHoldings,
				"held %d, committed %d, requested %d of %s", held.Quantity, committed, sub.Quantity, sub.Symbol)
		}
	}

	account.UpdatedAt = now
	err = withTx(ctx, e.repo, func(tx port.Tx) error {
		if err := tx.SaveOrder(ctx, order); err != nil {
			return err
		}
		return tx.SaveAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order admitted",
		"order", order.ID, "user", order.UserID, "symbol", order.Symbol,
		"side", order.Side, "type", order.Type, "qty", order.Quantity)
	return order, nil
}

// reservationRate is the per-share rate at which a BUY order blocks funds:
// the quote for MARKET, the limit price when one exists, the stop price for a
// plain stop order.
func reservationRate(sub Submission, quotePrice decimal.Decimal) decimal.Decimal {
	switch sub.Type {
	case domain.Limit, domain.StopLimit:
		return sub.LimitPrice
	case domain.StopLoss:
		return sub.StopPrice
	default:
		return quotePrice
	}
}

// DAY orders expire at the end of the submission day; GTD orders carry their
// explicit instant.
func (e *Engine) expiryFor(sub Submission, now time.Time) time.Time {
	switch sub.Validity {
	case domain.Day:
		y, m, d := now.Date()
		return time.Date(y, m, d, 23, 59, 59, 0, now.Location())
	case domain.GTD:
		return sub.ExpiresAt
	}
	return time.Time{}
}
