package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.QuoteCache = (*QuoteCache)(nil)

// QuoteCache is a TTL map cache for quotes.
type QuoteCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	store map[string]cachedQuote
}

type cachedQuote struct {
	quote   domain.Quote
	storedAt time.Time
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]cachedQuote),
	}
}

func key(symbol, market string) string { return market + ":" + symbol }

func (c *QuoteCache) SetQuote(ctx context.Context, q *domain.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key(q.Symbol, q.Market)] = cachedQuote{quote: *q, storedAt: c.now()}
	return nil
}

func (c *QuoteCache) GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.store[key(symbol, market)]
	if !ok {
		return nil, nil
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.store, key(symbol, market))
		return nil, nil
	}
	cp := entry.quote
	return &cp, nil
}
