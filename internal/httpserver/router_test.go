package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/accounts"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/feed"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/health"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/reports"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/stocks"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/trading"
)

// testRouter wires the full route table without a database. The cases
// below only exercise paths that reject before any query runs.
func testRouter() http.Handler {
	accountsSvc := accounts.NewService(nil, "test", []byte("test-secret"), time.Hour)
	return NewRouter(RouterDeps{
		AccountsHandler: accounts.NewHandler(accountsSvc),
		StocksHandler:   stocks.NewHandler(stocks.NewService(nil)),
		TradingHandler:  trading.NewHandler(trading.NewService(nil)),
		ReportsHandler:  reports.NewHandler(reports.NewService(nil)),
		HealthHandler:   health.NewHandler(nil, time.Now(), ""),
		AccountsService: accountsSvc,
		FeedWS:          feed.NewWSHandler(feed.NewBus(), "*"),
	})
}

func TestLiveEndpoint(t *testing.T) {
	router := testRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health/live = %d, want 200", rec.Code)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	router := testRouter()
	for _, path := range []string{"/users/buy", "/api/users/buy", "/users/sell", "/users/register", "/stocks/register", "/users/loan"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST %s with malformed body = %d, want 400", path, rec.Code)
		}
	}
}

func TestMeRequiresBearerToken(t *testing.T) {
	router := testRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /users/me without token = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /users/me with garbage token = %d, want 401", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := testRouter()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/users/buy", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestMetricsUnavailableWithoutToken(t *testing.T) {
	router := testRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /health/metrics with no token configured = %d, want 503", rec.Code)
	}
}
