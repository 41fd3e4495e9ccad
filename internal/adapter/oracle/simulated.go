// Package oracle provides the price oracle and market calendar adapters.
package oracle

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.PriceOracle = (*Simulated)(nil)

type band struct {
	min, max float64
}

// Per-symbol quote bands. Unknown symbols fall back to the default band.
var bands = map[string]band{
	"AAPL":       {150.0, 160.0},
	"GOOGL":      {2800.0, 2900.0},
	"MSFT":       {300.0, 310.0},
	"RELIANCE":   {2300.0, 2450.0},
	"TCS":        {3400.0, 3600.0},
	"INFY":       {1400.0, 1500.0},
	"HDFCBANK":   {1500.0, 1650.0},
	"ICICIBANK":  {900.0, 1000.0},
	"SBIN":       {550.0, 650.0},
	"TATAMOTORS": {600.0, 700.0},
	"BAJFINANCE": {7000.0, 7500.0},
	"WIPRO":      {400.0, 450.0},
	"ITC":        {400.0, 480.0},
}

var defaultBand = band{100.0, 500.0}

// Simulated draws quotes uniformly inside a per-symbol price band. It never
// fails, which makes it the default for development and tests.
type Simulated struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewSimulated() *Simulated {
	return &Simulated{
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
}

// NewSimulatedSeeded is the deterministic variant used in tests.
func NewSimulatedSeeded(seed uint64) *Simulated {
	return &Simulated{
		rnd: rand.New(rand.NewPCG(seed, seed)),
		now: time.Now,
	}
}

func (s *Simulated) GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	upper := strings.ToUpper(symbol)
	b, ok := bands[upper]
	if !ok {
		b = defaultBand
	}

	s.mu.Lock()
	v := b.min + (b.max-b.min)*s.rnd.Float64()
	s.mu.Unlock()

	return &domain.Quote{
		Symbol:    upper,
		Market:    market,
		Price:     decimal.NewFromFloat(v).Round(2),
		Timestamp: s.now(),
	}, nil
}
