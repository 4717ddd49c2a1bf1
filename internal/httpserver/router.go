package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/accounts"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/health"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/httputil"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/reports"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/stocks"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/trading"
)

type RouterDeps struct {
	AccountsHandler *accounts.Handler
	StocksHandler   *stocks.Handler
	TradingHandler  *trading.Handler
	ReportsHandler  *reports.Handler
	HealthHandler   *health.Handler
	AccountsService *accounts.Service
	FeedWS          http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", d.HealthHandler.Ready)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Get("/health/metrics", d.HealthHandler.Metrics)

	api := func(r chi.Router) {
		r.Route("/stocks", func(r chi.Router) {
			r.Post("/register", d.StocksHandler.Register)
			r.Get("/history", d.StocksHandler.History)
			r.Get("/history/{symbol}", d.StocksHandler.History)
			r.Get("/report", d.ReportsHandler.StockReport)
			r.Get("/report/{symbol}", d.ReportsHandler.StockReport)
			r.Get("/top", d.ReportsHandler.TopStocks)
			r.Get("/ws", d.FeedWS.ServeHTTP)
		})
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", d.AccountsHandler.Register)
			r.Post("/login", d.AccountsHandler.Login)
			r.Post("/loan", d.AccountsHandler.TakeLoan)
			r.Post("/buy", d.TradingHandler.Buy)
			r.Post("/sell", d.TradingHandler.Sell)
			r.Get("/report/{userId}", d.ReportsHandler.UserReport)
			r.Get("/top", d.ReportsHandler.TopUsers)
			r.Group(func(r chi.Router) {
				r.Use(WithAuth(d.AccountsService))
				r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
					userID, ok := UserID(r)
					if !ok {
						httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
						return
					}
					d.AccountsHandler.Me(w, r, userID)
				})
			})
		})
	}
	// The original clients hit everything under an /api prefix; serve both.
	r.Group(api)
	r.Route("/api", api)

	return r
}
