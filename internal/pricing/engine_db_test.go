package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/db"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/feed"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/logging"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/stocks"
)

func TestTickUpdatesEveryStock(t *testing.T) {
	pool := db.RequireTestPool(t)
	bus := feed.NewBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	engine := NewEngine(pool, bus, logging.NewLogger("error", "test"), time.Minute)
	ctx := context.Background()

	ids := []int64{
		db.CreateTestStock(t, pool, "AAA", "Aaa", decimal.RequireFromString("50"), 100),
		db.CreateTestStock(t, pool, "BBB", "Bbb", decimal.RequireFromString("1"), 100),
		db.CreateTestStock(t, pool, "CCC", "Ccc", decimal.RequireFromString("100"), 100),
	}

	engine.Tick(ctx)

	for _, id := range ids {
		var price decimal.Decimal
		if err := pool.QueryRow(ctx, "SELECT current_price FROM stocks WHERE id = $1", id).Scan(&price); err != nil {
			t.Fatalf("read price: %v", err)
		}
		if price.LessThan(stocks.MinPrice) || price.GreaterThan(stocks.MaxPrice) {
			t.Errorf("stock %d price %s left the band", id, price)
		}
		var histCount int
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM stock_price_history WHERE stock_id = $1", id).Scan(&histCount); err != nil {
			t.Fatalf("count history: %v", err)
		}
		if histCount != 1 {
			t.Errorf("stock %d history rows = %d, want 1 per tick", id, histCount)
		}
	}

	// One event per stock lands on the bus.
	got := 0
	for i := 0; i < 3; i++ {
		select {
		case <-sub:
			got++
		case <-time.After(time.Second):
		}
	}
	if got != 3 {
		t.Errorf("bus events = %d, want 3", got)
	}
}

func TestTickDriftIsBounded(t *testing.T) {
	pool := db.RequireTestPool(t)
	engine := NewEngine(pool, feed.NewBus(), logging.NewLogger("error", "test"), time.Minute)
	ctx := context.Background()

	id := db.CreateTestStock(t, pool, "MID", "Mid Band", decimal.RequireFromString("50"), 100)
	engine.Tick(ctx)

	var price decimal.Decimal
	if err := pool.QueryRow(ctx, "SELECT current_price FROM stocks WHERE id = $1", id).Scan(&price); err != nil {
		t.Fatalf("read price: %v", err)
	}
	// One tick from 50 stays within +/-5%.
	if price.LessThan(decimal.RequireFromString("47.5")) || price.GreaterThan(decimal.RequireFromString("52.5")) {
		t.Errorf("price %s drifted more than 5%% in one tick", price)
	}
}
