package pricing

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/feed"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/stocks"
)

// maxDrift is the magnitude of the per-tick uniform percentage change.
const maxDrift = 0.05

// Engine applies a bounded random walk to every stock's price on a fixed
// interval, appending a history row per update.
type Engine struct {
	pool     *pgxpool.Pool
	bus      *feed.Bus
	logger   *slog.Logger
	interval time.Duration
	rng      *rand.Rand
}

func NewEngine(pool *pgxpool.Pool, bus *feed.Bus, logger *slog.Logger, interval time.Duration) *Engine {
	return &Engine{
		pool:     pool,
		bus:      bus,
		logger:   logger,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks once immediately, then on every interval until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.Tick(ctx)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick drifts every stock's price. Each stock updates in its own
// transaction; one stock failing does not block the rest of the batch.
func (e *Engine) Tick(ctx context.Context) {
	rows, err := e.pool.Query(ctx, "SELECT id, symbol, current_price FROM stocks ORDER BY id")
	if err != nil {
		e.logger.Error("pricing tick: list stocks", "err", err)
		return
	}
	type stockRow struct {
		id     int64
		symbol string
		price  decimal.Decimal
	}
	var batch []stockRow
	for rows.Next() {
		var s stockRow
		if err := rows.Scan(&s.id, &s.symbol, &s.price); err != nil {
			rows.Close()
			e.logger.Error("pricing tick: scan stock", "err", err)
			return
		}
		batch = append(batch, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		e.logger.Error("pricing tick: list stocks", "err", err)
		return
	}

	for _, s := range batch {
		change := e.rng.Float64()*2*maxDrift - maxDrift
		newPrice := nextPrice(s.price, change)
		if err := e.applyUpdate(ctx, s.id, newPrice); err != nil {
			e.logger.Error("pricing tick: update stock", "symbol", s.symbol, "err", err)
			continue
		}
		e.logger.Debug("price updated", "symbol", s.symbol, "price", newPrice)
		e.bus.PublishPrice(feed.PriceUpdate{Symbol: s.symbol, Price: newPrice, Timestamp: time.Now().UTC()})
	}
}

func (e *Engine) applyUpdate(ctx context.Context, stockID int64, price decimal.Decimal) error {
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, "UPDATE stocks SET current_price = $1 WHERE id = $2", price, stockID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "INSERT INTO stock_price_history (stock_id, price) VALUES ($1, $2)", stockID, price); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// nextPrice applies a multiplicative percentage change, clamped to the
// allowed price band and rounded to cents.
func nextPrice(current decimal.Decimal, change float64) decimal.Decimal {
	p := current.Mul(decimal.NewFromFloat(1 + change))
	if p.LessThan(stocks.MinPrice) {
		p = stocks.MinPrice
	}
	if p.GreaterThan(stocks.MaxPrice) {
		p = stocks.MaxPrice
	}
	return p.Round(2)
}
