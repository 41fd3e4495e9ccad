package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rajeevkavala/Trading-Backend/internal/adapter/cache"
	"github.com/Rajeevkavala/Trading-Backend/internal/adapter/memory"
	"github.com/Rajeevkavala/Trading-Backend/internal/adapter/oracle"
	"github.com/Rajeevkavala/Trading-Backend/internal/adapter/pg"
	httpapi "github.com/Rajeevkavala/Trading-Backend/internal/api/http"
	"github.com/Rajeevkavala/Trading-Backend/internal/config"
	"github.com/Rajeevkavala/Trading-Backend/internal/core"
	"github.com/Rajeevkavala/Trading-Backend/internal/middleware"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := newRepository(ctx, cfg)
	if err != nil {
		log.Error("storage init", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	calendar, err := oracle.NewCalendar(cfg.Markets)
	if err != nil {
		log.Error("market calendar", "error", err)
		os.Exit(1)
	}

	priceOracle := newOracle(cfg, log)
	engine := core.NewEngine(repo, priceOracle, calendar, log)

	evaluator := core.NewEvaluator(engine, cfg.EvaluatorInterval(), cfg.Evaluator.MaxConcurrent, log)
	go evaluator.Run(ctx)

	limiter := middleware.NewRateLimiter(20, 40)
	server := httpapi.NewServer(engine, limiter, log)
	if err := server.Run(cfg.Server.Addr); err != nil {
		log.Error("http server", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newRepository(ctx context.Context, cfg *config.Config) (port.Repository, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		return memory.NewRepo(), func() {}, nil
	}
	if err := pg.Migrate(cfg.Storage.PostgresDSN); err != nil {
		return nil, nil, err
	}
	repo, err := pg.NewPgRepo(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

func newOracle(cfg *config.Config, log *slog.Logger) port.PriceOracle {
	var upstream port.PriceOracle
	if cfg.Oracle.Provider == "http" {
		upstream = oracle.NewHTTPOracle(oracle.HTTPOracleConfig{
			BaseURL:           cfg.Oracle.BaseURL,
			RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
			Burst:             cfg.Oracle.Burst,
			MaxElapsed:        cfg.OracleMaxElapsed(),
		})
	} else {
		upstream = oracle.NewSimulated()
	}

	var quotes port.QuoteCache
	if cfg.Cache.Driver == "redis" {
		quotes = cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.QuoteTTL())
	} else {
		quotes = memory.NewQuoteCache(cfg.QuoteTTL())
	}
	return oracle.NewCaching(upstream, quotes, log)
}
