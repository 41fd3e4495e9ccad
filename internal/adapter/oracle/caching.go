package oracle

import (
	"context"
	"log/slog"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.PriceOracle = (*Caching)(nil)

// Caching decorates an oracle with a short-lived quote cache. Cache failures
// degrade to the upstream oracle; they never become order failures.
type Caching struct {
	next  port.PriceOracle
	cache port.QuoteCache
	log   *slog.Logger
}

func NewCaching(next port.PriceOracle, cache port.QuoteCache, log *slog.Logger) *Caching {
	if log == nil {
		log = slog.Default()
	}
	return &Caching{next: next, cache: cache, log: log}
}

func (c *Caching) GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	if hit, err := c.cache.GetQuote(ctx, symbol, market); err != nil {
		c.log.Warn("quote cache read failed", "symbol", symbol, "error", err)
	} else if hit != nil {
		return hit, nil
	}

	q, err := c.next.GetQuote(ctx, symbol, market)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetQuote(ctx, q); err != nil {
		c.log.Warn("quote cache write failed", "symbol", symbol, "error", err)
	}
	return q, nil
}
