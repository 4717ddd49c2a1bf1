package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RequireTestPool connects to the database named by TEST_DATABASE_DSN,
// creates the schema, and truncates all tables. Tests that need a real
// database are skipped when the variable is unset.
func RequireTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping database test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := CreateSchema(ctx, pool); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE users, stocks, transactions, stock_price_history RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

// CreateTestUser inserts a user directly and returns its id.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, username string, balance decimal.Decimal) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO users (username, password_hash, balance) VALUES ($1, $2, $3) RETURNING id",
		username, "test-hash", balance).Scan(&id)
	if err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return id
}

// CreateTestStock inserts a stock directly and returns its id.
func CreateTestStock(t *testing.T, pool *pgxpool.Pool, symbol, name string, price decimal.Decimal, quantity int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO stocks (symbol, name, current_price, initial_price, available_quantity) VALUES ($1, $2, $3, $3, $4) RETURNING id",
		symbol, name, price, quantity).Scan(&id)
	if err != nil {
		t.Fatalf("create test stock %s: %v", symbol, err)
	}
	return id
}

// UserBalance reads a user's committed balance.
func UserBalance(t *testing.T, pool *pgxpool.Pool, userID int64) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	err := pool.QueryRow(context.Background(),
		"SELECT balance FROM users WHERE id = $1", userID).Scan(&balance)
	if err != nil {
		t.Fatalf("read balance for user %d: %v", userID, err)
	}
	return balance
}

// StockQuantity reads a stock's committed available quantity.
func StockQuantity(t *testing.T, pool *pgxpool.Pool, stockID int64) int64 {
	t.Helper()
	var qty int64
	err := pool.QueryRow(context.Background(),
		"SELECT available_quantity FROM stocks WHERE id = $1", stockID).Scan(&qty)
	if err != nil {
		t.Fatalf("read quantity for stock %d: %v", stockID, err)
	}
	return qty
}

// CountRows counts rows in a table, optionally filtered.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
