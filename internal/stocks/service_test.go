package stocks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/db"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRegisterNormalizesSymbol(t *testing.T) {
	pool := db.RequireTestPool(t)
	svc := NewService(pool)

	st, err := svc.Register(context.Background(), " acme ", "Acme Corp", dec("50"), 100)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if st.Symbol != "ACME" {
		t.Errorf("symbol = %q, want ACME", st.Symbol)
	}
	if !st.InitialPrice.Equal(dec("50")) || !st.CurrentPrice.Equal(dec("50")) {
		t.Errorf("prices = %s/%s, want 50/50", st.InitialPrice, st.CurrentPrice)
	}
	// Registration writes the first history row.
	if got := db.CountRows(t, pool, "stock_price_history"); got != 1 {
		t.Errorf("history rows = %d, want 1", got)
	}
}

func TestRegisterOutOfRangePrice(t *testing.T) {
	pool := db.RequireTestPool(t)
	svc := NewService(pool)
	ctx := context.Background()

	for _, price := range []string{"0.5", "150", "0", "-10"} {
		_, err := svc.Register(ctx, "ACME", "Acme Corp", dec(price), 100)
		if apperr.HTTPStatus(err) != 400 {
			t.Errorf("price %s err = %v, want validation error", price, err)
		}
	}
	if got := db.CountRows(t, pool, "stocks"); got != 0 {
		t.Errorf("stocks = %d, want 0 rows created", got)
	}
	if got := db.CountRows(t, pool, "stock_price_history"); got != 0 {
		t.Errorf("history = %d, want 0 rows created", got)
	}
}

func TestRegisterDuplicateSymbol(t *testing.T) {
	pool := db.RequireTestPool(t)
	svc := NewService(pool)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ACME", "Acme Corp", dec("50"), 100); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Case-insensitive: acme collides with ACME.
	_, err := svc.Register(ctx, "acme", "Other Acme", dec("20"), 10)
	if apperr.CodeOf(err) != apperr.CodeDuplicateSymbol {
		t.Fatalf("err = %v, want DuplicateSymbol", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "", "Acme", dec("50"), 10); apperr.HTTPStatus(err) != 400 {
		t.Errorf("missing symbol err = %v, want validation", err)
	}
	if _, err := svc.Register(ctx, "ACME", "", dec("50"), 10); apperr.HTTPStatus(err) != 400 {
		t.Errorf("missing name err = %v, want validation", err)
	}
	if _, err := svc.Register(ctx, "ACME", "Acme", dec("50"), -1); apperr.HTTPStatus(err) != 400 {
		t.Errorf("negative quantity err = %v, want validation", err)
	}
}

func TestHistoryFilterBySymbol(t *testing.T) {
	pool := db.RequireTestPool(t)
	svc := NewService(pool)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "AAA", "Aaa", dec("10"), 10); err != nil {
		t.Fatalf("register AAA: %v", err)
	}
	if _, err := svc.Register(ctx, "BBB", "Bbb", dec("20"), 10); err != nil {
		t.Fatalf("register BBB: %v", err)
	}

	all, err := svc.History(ctx, "")
	if err != nil {
		t.Fatalf("history all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all history rows = %d, want 2", len(all))
	}

	only, err := svc.History(ctx, "aaa")
	if err != nil {
		t.Fatalf("history AAA: %v", err)
	}
	if len(only) != 1 || only[0].Symbol != "AAA" || !only[0].Price.Equal(dec("10")) {
		t.Errorf("filtered history = %+v, want one AAA row at 10", only)
	}
}
