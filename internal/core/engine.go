// Package core implements the order lifecycle engine: admission of new
// orders, periodic re-evaluation of resting orders against the price oracle,
// and atomic execution against the account ledger.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

type Engine struct {
	repo     port.Repository
	oracle   port.PriceOracle
	calendar port.MarketCalendar
	log      *slog.Logger

	locks accountLocks
	now   func() time.Time
}

func NewEngine(repo port.Repository, oracle port.PriceOracle, calendar port.MarketCalendar, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		repo:     repo,
		oracle:   oracle,
		calendar: calendar,
		log:      log,
		now:      time.Now,
	}
}

// GetOrder returns the order if it exists and belongs to the user.
func (e *Engine) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := e.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, errs.Newf(errs.KindNotFound, "order %s not found", orderID)
	}
	return o, nil
}

// ListOrders returns the user's orders, optionally filtered by status.
func (e *Engine) ListOrders(ctx context.Context, userID string, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	return e.repo.ListOrdersByUser(ctx, userID, statuses...)
}

// ListTransactions returns the user's execution history.
func (e *Engine) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return e.repo.ListTransactionsByUser(ctx, userID)
}

// GetAccount returns a read-only snapshot of the user's ledger.
func (e *Engine) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	return e.repo.FindAccount(ctx, userID)
}

// Quote returns the current oracle price for a symbol.
func (e *Engine) Quote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	quote, err := e.oracle.GetQuote(ctx, symbol, market)
	if err != nil {
		return nil, errs.Wrap(errs.KindQuoteUnavailable, "quote", err)
	}
	if quote == nil {
		return nil, errs.Newf(errs.KindQuoteUnavailable, "no quote for %s/%s", market, symbol)
	}
	return quote, nil
}
