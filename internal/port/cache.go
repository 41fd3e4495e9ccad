package port

import (
	"context"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
)

// QuoteCache is a short-lived quote store in front of the oracle.
// GetQuote returns (nil, nil) on a cache miss; cache failures must never
// surface as order failures.
type QuoteCache interface {
	SetQuote(ctx context.Context, q *domain.Quote) error
	GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error)
}
