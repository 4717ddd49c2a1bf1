package health

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/httputil"
)

type Handler struct {
	pool        *pgxpool.Pool
	startedAt   time.Time
	internalTok string
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time, internalToken string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{pool: pool, startedAt: start, internalTok: strings.TrimSpace(internalToken)}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

type readinessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Database  dbStat `json:"database"`
}

type dbStat struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	u := now.Sub(h.startedAt)
	if u < 0 {
		return 0
	}
	return u
}

func (h *Handler) pingDB(ctx context.Context) dbStat {
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	start := time.Now()
	err := h.pool.Ping(pingCtx)
	stat := dbStat{Reachable: err == nil, PingMs: time.Since(start).Milliseconds()}
	if err != nil {
		stat.Error = err.Error()
	}
	return stat
}

// Live does not touch the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
	})
}

// Ready returns 503 when the database is not reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	db := h.pingDB(r.Context())
	status, httpStatus := "ok", http.StatusOK
	if !db.Reachable {
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
		Database:  db,
	})
}

func secureTokenEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Metrics returns basic Prometheus-compatible text and is protected by
// X-Internal-Token.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.internalTok == "" {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "internal token is not configured"})
		return
	}
	if !secureTokenEqual(strings.TrimSpace(r.Header.Get("X-Internal-Token")), h.internalTok) {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid internal token"})
		return
	}

	now := time.Now().UTC()
	db := h.pingDB(r.Context())
	dbUp := 0
	if db.Reachable {
		dbUp = 1
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stat := h.pool.Stat()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "stocksim_up 1\n")
	_, _ = fmt.Fprintf(w, "stocksim_uptime_seconds %d\n", int64(h.uptime(now).Seconds()))
	_, _ = fmt.Fprintf(w, "stocksim_db_up %d\n", dbUp)
	_, _ = fmt.Fprintf(w, "stocksim_db_ping_milliseconds %d\n", db.PingMs)
	_, _ = fmt.Fprintf(w, "stocksim_db_pool_total_conns %d\n", stat.TotalConns())
	_, _ = fmt.Fprintf(w, "stocksim_db_pool_idle_conns %d\n", stat.IdleConns())
	_, _ = fmt.Fprintf(w, "stocksim_db_pool_acquired_conns %d\n", stat.AcquiredConns())
	_, _ = fmt.Fprintf(w, "stocksim_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "stocksim_go_mem_alloc_bytes %d\n", mem.Alloc)
	_, _ = fmt.Fprintf(w, "stocksim_go_gc_count %d\n", mem.NumGC)
}
