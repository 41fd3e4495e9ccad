package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

// execute applies one fill atomically: ledger movement, order transition and
// transaction record commit as a single unit guarded by the user's lock and
// the order's version token. The quote is always fetched before entering the
// critical section; nothing inside it awaits an external call.
func (e *Engine) execute(ctx context.Context, orderID string, quote *domain.Quote, fillQty int64) (*domain.Order, error) {
	o, err := e.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(o.UserID)
	defer unlock()

	// Reload under the lock; the pre-lock copy may be stale.
	o, err = e.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOpen() {
		return nil, errs.Newf(errs.KindInvalidState, "order %s is %s", o.ID, o.Status)
	}
	now := e.now()
	if o.IsExpired(now) {
		return nil, errs.Newf(errs.KindInvalidState, "order %s validity elapsed", o.ID)
	}
	if fillQty < 1 || fillQty > o.Remaining() {
		return nil, errs.Newf(errs.KindValidation, "fill %d outside remaining %d", fillQty, o.Remaining())
	}

	account, err := e.repo.FindAccount(ctx, o.UserID)
	if err != nil {
		return nil, err
	}

	price := quote.Price
	qty := decimal.NewFromInt(fillQty)
	gross := price.Mul(qty)

	switch o.Side {
	case domain.Buy:
		reserved := o.ReservedRate.Mul(qty)
		if err := account.Release(reserved); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "release reservation", err)
		}
		if err := account.Debit(gross); err != nil {
			// A buy-stop can trigger above its reserved rate; leave the order
			// resting rather than drive the balance negative.
			return nil, errs.Wrap(errs.KindInsufficientFunds, "fill cost exceeds reservation", err)
		}
		account.ApplyBuy(o.Symbol, fillQty, price)
	case domain.Sell:
		if err := account.ApplySell(o.Symbol, fillQty); err != nil {
			return nil, errs.Wrap(errs.KindInsufficientHoldings, "settle sell", err)
		}
		account.Credit(gross)
	}
	account.UpdatedAt = now

	expected := o.Version
	o.FilledQuantity += fillQty
	next := domain.Partial
	if o.FilledQuantity == o.Quantity {
		next = domain.Filled
	}
	if !domain.CanTransition(o.Status, next) {
		return nil, errs.Newf(errs.KindInvalidState, "cannot move %s from %s to %s", o.ID, o.Status, next)
	}
	o.Status = next
	o.ExecutedPrice = price
	o.TotalValue = o.TotalValue.Add(gross)
	o.ExecutedAt = now
	o.UpdatedAt = now

	record := &domain.Transaction{
		ID:         uuid.NewString(),
		UserID:     o.UserID,
		OrderID:    o.ID,
		Symbol:     o.Symbol,
		Market:     o.Market,
		Side:       o.Side,
		Quantity:   fillQty,
		Price:      price,
		Total:      gross,
		ExecutedAt: now,
	}

	err = withTx(ctx, e.repo, func(tx port.Tx) error {
		if err := tx.UpdateOrder(ctx, o, expected); err != nil {
			return err
		}
		if err := tx.SaveAccount(ctx, account); err != nil {
			return err
		}
		return tx.SaveTransaction(ctx, record)
	})
	if err != nil {
		if errs.IsKind(err, errs.KindConflict) {
			return nil, errs.Wrap(errs.KindInvalidState, "order changed concurrently", err)
		}
		return nil, err
	}
	o.Version = expected + 1

	e.log.Info("order executed",
		"order", o.ID, "user", o.UserID, "symbol", o.Symbol, "side", o.Side,
		"qty", fillQty, "price", price.String(), "status", o.Status)
	return o, nil
}

// CancelOrder cancels a PENDING or PARTIAL order owned by the user, releasing
// the blocked funds attributable to the unfilled quantity.
func (e *Engine) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := e.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, errs.Newf(errs.KindNotFound, "order %s not found", orderID)
	}
	return e.releaseAndClose(ctx, orderID, domain.Cancelled)
}

// releaseAndClose moves an open order to a terminal state and releases any
// remaining BUY reservation, as one atomic unit. A racing execution wins or
// loses the version check; the loser applies nothing.
func (e *Engine) releaseAndClose(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	o, err := e.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(o.UserID)
	defer unlock()

	o, err = e.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOpen() || !domain.CanTransition(o.Status, to) {
		return nil, errs.Newf(errs.KindInvalidState, "order %s is %s", o.ID, o.Status)
	}

	account, err := e.repo.FindAccount(ctx, o.UserID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	if o.Side == domain.Buy {
		remaining := o.ReservedRate.Mul(decimal.NewFromInt(o.Remaining()))
		if remaining.Sign() > 0 {
			if err := account.Release(remaining); err != nil {
				return nil, errs.Wrap(errs.KindInternal, "release reservation", err)
			}
		}
	}
	account.UpdatedAt = now

	expected := o.Version
	o.Status = to
	o.UpdatedAt = now

	err = withTx(ctx, e.repo, func(tx port.Tx) error {
		if err := tx.UpdateOrder(ctx, o, expected); err != nil {
			return err
		}
		return tx.SaveAccount(ctx, account)
	})
	if err != nil {
		if errs.IsKind(err, errs.KindConflict) {
			return nil, errs.Wrap(errs.KindInvalidState, "order changed concurrently", err)
		}
		return nil, err
	}
	o.Version = expected + 1

	e.log.Info("order closed", "order", o.ID, "user", o.UserID, "status", to)
	return o, nil
}
