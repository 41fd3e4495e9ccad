package port

import (
	"context"
	"time"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
)

// PriceOracle is the external price source the engine trusts for execution
// pricing. It may be stale, slow, or fail; failures map to
// errs.KindQuoteUnavailable.
type PriceOracle interface {
	GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error)
}

// MarketCalendar reports whether a venue accepts market orders at an instant.
type MarketCalendar interface {
	IsOpen(market string, at time.Time) bool
}
