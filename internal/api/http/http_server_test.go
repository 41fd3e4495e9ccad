package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/adapter/memory"
	"github.com/Rajeevkavala/Trading-Backend/internal/api/dto"
	"github.com/Rajeevkavala/Trading-Backend/internal/core"
	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
)

type fixedOracle struct{ price decimal.Decimal }

func (f fixedOracle) GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	return &domain.Quote{Symbol: symbol, Market: market, Price: f.price, Timestamp: time.Now()}, nil
}

type openCalendar struct{}

func (openCalendar) IsOpen(market string, at time.Time) bool { return true }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := core.NewEngine(memory.NewRepo(), fixedOracle{price: decimal.RequireFromString("155")}, openCalendar{}, nil)
	return NewServer(engine, nil, nil)
}

func do(t *testing.T, s *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestMissingUserHeaderRejected(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/wallet/balance", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDepositAndBalance(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "5000"})
	if w.Code != http.StatusOK {
		t.Fatalf("deposit status = %d: %s", w.Code, w.Body.String())
	}
	account := decode[dto.Account](t, w)
	if !account.Available.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("available = %s", account.Available)
	}

	w = do(t, s, http.MethodGet, "/api/wallet/balance", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("balance status = %d", w.Code)
	}
}

type payload = map[string]any

func TestPlaceOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "10000"})

	w := do(t, s, http.MethodPost, "/api/trading/orders", "u1", payload{
		"symbol": "aapl", "market": "nasdaq", "side": "buy", "type": "market", "quantity": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("place status = %d: %s", w.Code, w.Body.String())
	}
	order := decode[dto.Order](t, w)
	if order.Status != "FILLED" {
		t.Errorf("status = %s", order.Status)
	}
	if order.Symbol != "AAPL" {
		t.Errorf("symbol not normalized: %s", order.Symbol)
	}

	w = do(t, s, http.MethodGet, "/api/trading/orders/"+order.ID, "u1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get order status = %d", w.Code)
	}

	// Another user cannot see it.
	w = do(t, s, http.MethodGet, "/api/trading/orders/"+order.ID, "u2", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", w.Code)
	}

	w = do(t, s, http.MethodGet, "/api/trading/transactions", "u1", nil)
	txs := decode[dto.ListTransactionsResponse](t, w)
	if len(txs.Transactions) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs.Transactions))
	}

	w = do(t, s, http.MethodGet, "/api/trading/portfolio", "u1", nil)
	account := decode[dto.Account](t, w)
	if len(account.Holdings) != 1 || account.Holdings[0].Quantity != 10 {
		t.Errorf("portfolio = %+v", account.Holdings)
	}
}

func TestPlaceOrderValidationStatus(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "10000"})

	w := do(t, s, http.MethodPost, "/api/trading/orders", "u1", payload{
		"symbol": "AAPL", "market": "NASDAQ", "side": "BUY", "type": "LIMIT", "quantity": 10,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for LIMIT without price", w.Code)
	}
	e := decode[dto.Error](t, w)
	if e.Kind != "validation" {
		t.Errorf("kind = %q", e.Kind)
	}
}

func TestInsufficientFundsStatus(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "100"})

	w := do(t, s, http.MethodPost, "/api/trading/orders", "u1", payload{
		"symbol": "AAPL", "market": "NASDAQ", "side": "BUY", "type": "MARKET", "quantity": 10,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestCancelRestingOrder(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "10000"})

	w := do(t, s, http.MethodPost, "/api/trading/orders", "u1", payload{
		"symbol": "AAPL", "market": "NASDAQ", "side": "BUY", "type": "LIMIT",
		"quantity": 10, "limit_price": "150",
	})
	order := decode[dto.Order](t, w)
	if order.Status != "PENDING" {
		t.Fatalf("status = %s", order.Status)
	}

	w = do(t, s, http.MethodDelete, "/api/trading/orders/"+order.ID, "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", w.Code, w.Body.String())
	}
	cancelled := decode[dto.Order](t, w)
	if cancelled.Status != "CANCELLED" {
		t.Errorf("status = %s", cancelled.Status)
	}

	// Double cancel conflicts.
	w = do(t, s, http.MethodDelete, "/api/trading/orders/"+order.ID, "u1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double cancel status = %d, want 409", w.Code)
	}
}

func TestWithdrawOverBalance(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "100"})

	w := do(t, s, http.MethodPost, "/api/wallet/withdraw", "u1", payload{"amount": "101"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/stocks/quote/AAPL?market=NASDAQ", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	quote := decode[domain.Quote](t, w)
	if quote.Symbol != "AAPL" || !quote.Price.Equal(decimal.RequireFromString("155")) {
		t.Errorf("quote = %+v", quote)
	}
}

func TestListOrdersStatusFilter(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/wallet/deposit", "u1", payload{"amount": "10000"})

	do(t, s, http.MethodPost, "/api/trading/orders", "u1", payload{
		"symbol": "AAPL", "market": "NASDAQ", "side": "BUY", "type": "MARKET", "quantity": 5,
	})
	do(t, s, http.MethodPost, "/api/trading/orders", "u1", payload{
		"symbol": "AAPL", "market": "NASDAQ", "side": "BUY", "type": "LIMIT",
		"quantity": 5, "limit_price": "150",
	})

	w := do(t, s, http.MethodGet, "/api/trading/orders?status=pending", "u1", nil)
	got := decode[dto.ListOrdersResponse](t, w)
	if len(got.Orders) != 1 || got.Orders[0].Status != "PENDING" {
		t.Errorf("filtered orders = %+v", got.Orders)
	}

	w = do(t, s, http.MethodGet, "/api/trading/orders", "u1", nil)
	got = decode[dto.ListOrdersResponse](t, w)
	if len(got.Orders) != 2 {
		t.Errorf("all orders = %d, want 2", len(got.Orders))
	}
}
