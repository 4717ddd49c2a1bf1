package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// CreateSchema creates the four ledger tables. Transactions and price
// history are append-only; both cascade on user/stock deletion.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			balance NUMERIC(18,2) NOT NULL DEFAULT 0,
			loan_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS stocks (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			current_price NUMERIC(18,2) NOT NULL,
			initial_price NUMERIC(18,2) NOT NULL,
			available_quantity BIGINT NOT NULL CHECK (available_quantity >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			stock_id BIGINT NOT NULL REFERENCES stocks(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('BUY', 'SELL')),
			quantity BIGINT NOT NULL CHECK (quantity > 0),
			price_per_share NUMERIC(18,2) NOT NULL,
			total_amount NUMERIC(18,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS stock_price_history (
			id BIGSERIAL PRIMARY KEY,
			stock_id BIGINT NOT NULL REFERENCES stocks(id) ON DELETE CASCADE,
			price NUMERIC(18,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_stock ON transactions (user_id, stock_id)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_stock ON stock_price_history (stock_id, created_at)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
