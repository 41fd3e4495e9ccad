// Package http exposes the trading engine over a gin HTTP surface. The
// X-User-ID header identifies the caller on every route.
package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rajeevkavala/Trading-Backend/internal/api/dto"
	"github.com/Rajeevkavala/Trading-Backend/internal/core"
	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/middleware"
)

type Server struct {
	engine *core.Engine
	log    *slog.Logger
	router *gin.Engine
}

func NewServer(engine *core.Engine, limiter *middleware.RateLimiter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{engine: engine, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.RequireUser())
	if limiter != nil {
		api.Use(limiter.Middleware())
	}

	trading := api.Group("/trading")
	trading.POST("/orders", s.placeOrder)
	trading.GET("/orders", s.listOrders)
	trading.GET("/orders/:id", s.getOrder)
	trading.DELETE("/orders/:id", s.cancelOrder)
	trading.GET("/portfolio", s.getPortfolio)
	trading.GET("/transactions", s.listTransactions)

	wallet := api.Group("/wallet")
	wallet.GET("/balance", s.getBalance)
	wallet.POST("/deposit", s.deposit)
	wallet.POST("/withdraw", s.withdraw)

	api.GET("/stocks/quote/:symbol", s.getQuote)

	s.router = r
	return s
}

// Router exposes the handler tree for tests and custom servers.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) Run(addr string) error {
	s.log.Info("http server listening", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) placeOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Kind: string(errs.KindValidation)})
		return
	}

	sub := core.Submission{
		UserID:     middleware.UserID(c),
		Symbol:     req.Symbol,
		Market:     strings.ToUpper(req.Market),
		Side:       domain.Side(strings.ToUpper(req.Side)),
		Type:       domain.OrderType(strings.ToUpper(req.Type)),
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		Validity:   domain.Validity(strings.ToUpper(req.Validity)),
	}
	if req.ExpiresAt != nil {
		sub.ExpiresAt = *req.ExpiresAt
	}

	order, err := s.engine.PlaceOrder(c.Request.Context(), sub)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, convertOrder(order))
}

func (s *Server) listOrders(c *gin.Context) {
	var statuses []domain.OrderStatus
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.OrderStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	orders, err := s.engine.ListOrders(c.Request.Context(), middleware.UserID(c), statuses...)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := dto.ListOrdersResponse{Orders: make([]dto.Order, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, convertOrder(o))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.engine.GetOrder(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertOrder(order))
}

func (s *Server) cancelOrder(c *gin.Context) {
	order, err := s.engine.CancelOrder(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertOrder(order))
}

func (s *Server) getPortfolio(c *gin.Context) {
	account, err := s.engine.GetAccount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAccount(account))
}

func (s *Server) listTransactions(c *gin.Context) {
	txs, err := s.engine.ListTransactions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := dto.ListTransactionsResponse{Transactions: make([]dto.Transaction, 0, len(txs))}
	for _, t := range txs {
		resp.Transactions = append(resp.Transactions, dto.Transaction{
			ID:         t.ID,
			OrderID:    t.OrderID,
			Symbol:     t.Symbol,
			Market:     t.Market,
			Side:       string(t.Side),
			Quantity:   t.Quantity,
			Price:      t.Price,
			Total:      t.Total,
			ExecutedAt: t.ExecutedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getBalance(c *gin.Context) {
	account, err := s.engine.GetAccount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAccount(account))
}

func (s *Server) deposit(c *gin.Context) {
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Kind: string(errs.KindValidation)})
		return
	}
	userID := middleware.UserID(c)
	// First deposit opens the account.
	if _, err := s.engine.OpenAccount(c.Request.Context(), userID); err != nil {
		s.fail(c, err)
		return
	}
	account, err := s.engine.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAccount(account))
}

func (s *Server) withdraw(c *gin.Context) {
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error(), Kind: string(errs.KindValidation)})
		return
	}
	account, err := s.engine.Withdraw(c.Request.Context(), middleware.UserID(c), req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAccount(account))
}

func (s *Server) getQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	market := strings.ToUpper(c.DefaultQuery("market", "NSE"))
	quote, err := s.engine.Quote(c.Request.Context(), symbol, market)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// fail maps the error kind to an HTTP status and writes the error body.
func (s *Server) fail(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, dto.Error{Error: err.Error(), Kind: string(kind)})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindMarketClosed, errs.KindInsufficientFunds, errs.KindInsufficientHoldings:
		return http.StatusUnprocessableEntity
	case errs.KindInvalidState, errs.KindConflict:
		return http.StatusConflict
	case errs.KindQuoteUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func convertOrder(o *domain.Order) dto.Order {
	out := dto.Order{
		ID:             o.ID,
		Symbol:         o.Symbol,
		Market:         o.Market,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Status:         string(o.Status),
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		LimitPrice:     o.LimitPrice,
		StopPrice:      o.StopPrice,
		Validity:       string(o.Validity),
		ExecutedPrice:  o.ExecutedPrice,
		TotalValue:     o.TotalValue,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if !o.ExpiresAt.IsZero() {
		t := o.ExpiresAt
		out.ExpiresAt = &t
	}
	if !o.ExecutedAt.IsZero() {
		t := o.ExecutedAt
		out.ExecutedAt = &t
	}
	return out
}

func convertAccount(a *domain.Account) dto.Account {
	out := dto.Account{
		UserID:    a.UserID,
		Available: a.Available,
		Blocked:   a.Blocked,
		Holdings:  make([]dto.Holding, 0, len(a.Holdings)),
		UpdatedAt: a.UpdatedAt,
	}
	for _, h := range a.Holdings {
		out.Holdings = append(out.Holdings, dto.Holding{
			Symbol:   h.Symbol,
			Quantity: h.Quantity,
			AvgCost:  h.AvgCost,
		})
	}
	return out
}
