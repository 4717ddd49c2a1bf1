package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/accounts"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/config"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/db"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/feed"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/health"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/httpserver"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/logging"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/pricing"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/reports"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/stocks"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/trading"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewLogger(cfg.LogLevel, "stock-sim-api")
	slog.SetDefault(logger)

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.CreateSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	bus := feed.NewBus()
	accountsSvc := accounts.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)
	stocksSvc := stocks.NewService(pool)
	tradingSvc := trading.NewService(pool)
	reportsSvc := reports.NewService(pool)
	engine := pricing.NewEngine(pool, bus, logger, cfg.PriceTickInterval)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AccountsHandler: accounts.NewHandler(accountsSvc),
		StocksHandler:   stocks.NewHandler(stocksSvc),
		TradingHandler:  trading.NewHandler(tradingSvc),
		ReportsHandler:  reports.NewHandler(reportsSvc),
		HealthHandler:   health.NewHandler(pool, time.Now(), cfg.InternalToken),
		AccountsService: accountsSvc,
		FeedWS:          feed.NewWSHandler(bus, cfg.WSOrigin),
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// Price drift runs for the life of the process; first tick is eager.
	go engine.Run(ctx)

	logger.Info("server listening", "addr", cfg.HTTPAddr, "tick_interval", cfg.PriceTickInterval.String())
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
