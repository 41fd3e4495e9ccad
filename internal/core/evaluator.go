package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
)

// Evaluator periodically re-evaluates resting orders: expired orders are
// closed with their reservations released, and orders whose trigger condition
// holds against a fresh quote are executed. Symbols are evaluated
// independently, so one symbol's oracle failure never stalls the rest of the
// cycle.
type Evaluator struct {
	engine        *Engine
	interval      time.Duration
	maxConcurrent int
	log           *slog.Logger
}

func NewEvaluator(engine *Engine, interval time.Duration, maxConcurrent int, log *slog.Logger) *Evaluator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		engine:        engine,
		interval:      interval,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

// Run drives evaluation cycles until the context is cancelled.
func (ev *Evaluator) Run(ctx context.Context) {
	ticker := time.NewTicker(ev.interval)
	defer ticker.Stop()

	ev.log.Info("evaluator started", "interval", ev.interval)
	for {
		select {
		case <-ctx.Done():
			ev.log.Info("evaluator stopped")
			return
		case <-ticker.C:
			ev.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single evaluation cycle over all open orders.
func (ev *Evaluator) RunOnce(ctx context.Context) {
	orders, err := ev.engine.repo.FindOpenOrders(ctx)
	if err != nil {
		ev.log.Error("load open orders", "error", err)
		return
	}
	if len(orders) == 0 {
		return
	}

	groups := make(map[string][]*domain.Order)
	for _, o := range orders {
		key := o.Market + "|" + o.Symbol
		groups[key] = append(groups[key], o)
	}

	p := pool.New().WithMaxGoroutines(ev.maxConcurrent)
	for _, group := range groups {
		group := group
		p.Go(func() {
			ev.evaluateSymbol(ctx, group)
		})
	}
	p.Wait()
}

// evaluateSymbol handles all open orders of one symbol on one market.
func (ev *Evaluator) evaluateSymbol(ctx context.Context, orders []*domain.Order) {
	now := ev.engine.now()

	live := orders[:0]
	for _, o := range orders {
		if o.IsExpired(now) {
			if _, err := ev.engine.releaseAndClose(ctx, o.ID, domain.Expired); err != nil {
				if errs.IsKind(err, errs.KindInvalidState) {
					// Lost the race to an execution or cancellation.
					ev.log.Debug("expiry skipped", "order", o.ID, "error", err)
				} else {
					ev.log.Error("expire order", "order", o.ID, "error", err)
				}
			}
			continue
		}
		live = append(live, o)
	}
	if len(live) == 0 {
		return
	}

	symbol, market := live[0].Symbol, live[0].Market
	quote, err := ev.engine.oracle.GetQuote(ctx, symbol, market)
	if err != nil || quote == nil {
		// Transient oracle failures never change order state; these orders
		// are retried on the next cycle.
		ev.log.Warn("quote unavailable, orders left untouched",
			"symbol", symbol, "market", market, "orders", len(live), "error", err)
		return
	}

	for _, o := range live {
		if !triggerSatisfied(o, quote.Price) {
			continue
		}
		if _, err := ev.engine.execute(ctx, o.ID, quote, o.Remaining()); err != nil {
			if errs.IsKind(err, errs.KindInvalidState) {
				ev.log.Debug("execution skipped", "order", o.ID, "error", err)
			} else {
				ev.log.Error("execute order", "order", o.ID, "error", err)
			}
		}
	}
}
