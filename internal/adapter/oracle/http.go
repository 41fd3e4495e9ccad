package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.PriceOracle = (*HTTPOracle)(nil)

// HTTPOracle fetches quotes from an upstream quote service over REST.
// Requests are rate limited and retried with exponential backoff; client
// errors from the upstream are not retried.
type HTTPOracle struct {
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
}

// HTTPOracleConfig bundles the tuning knobs for the client.
type HTTPOracleConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	MaxElapsed        time.Duration
	Timeout           time.Duration
}

func NewHTTPOracle(cfg HTTPOracleConfig) *HTTPOracle {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &HTTPOracle{
		baseURL:    cfg.BaseURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxElapsed: cfg.MaxElapsed,
	}
}

func (o *HTTPOracle) GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.KindQuoteUnavailable, "oracle rate limiter", err)
	}

	operation := func() (*domain.Quote, error) {
		return o.fetch(ctx, symbol, market)
	}
	q, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(o.maxElapsed),
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindQuoteUnavailable, fmt.Sprintf("quote %s/%s", market, symbol), err)
	}
	return q, nil
}

func (o *HTTPOracle) fetch(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&market=%s", o.baseURL, url.QueryEscape(symbol), url.QueryEscape(market))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The upstream rejected the request; retrying cannot help.
		return nil, backoff.Permanent(fmt.Errorf("oracle status %d: %s", resp.StatusCode, body))
	default:
		return nil, fmt.Errorf("oracle status %d", resp.StatusCode)
	}

	var q domain.Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode quote: %w", err))
	}
	if q.Price.Sign() <= 0 {
		return nil, backoff.Permanent(fmt.Errorf("oracle returned non-positive price %s", q.Price))
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if q.Market == "" {
		q.Market = market
	}
	return &q, nil
}
