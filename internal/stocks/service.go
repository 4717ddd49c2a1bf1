package stocks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
)

// Price bounds enforced at registration and by the pricing engine.
var (
	MinPrice = decimal.NewFromInt(1)
	MaxPrice = decimal.NewFromInt(100)
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

type Stock struct {
	ID                int64           `json:"id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	CurrentPrice      decimal.Decimal `json:"currentPrice"`
	InitialPrice      decimal.Decimal `json:"initialPrice"`
	AvailableQuantity int64           `json:"availableQuantity"`
}

type HistoryRow struct {
	ID        int64           `json:"id"`
	StockID   int64           `json:"stockId"`
	Symbol    string          `json:"symbol,omitempty"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Register creates a stock and its initial price-history row in one
// transaction. The symbol is stored uppercase.
func (s *Service) Register(ctx context.Context, symbol, name string, initialPrice decimal.Decimal, availableQuantity int64) (Stock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || name == "" {
		return Stock{}, apperr.Validation("please provide symbol, name, initialPrice, and availableQuantity")
	}
	if initialPrice.LessThan(MinPrice) || initialPrice.GreaterThan(MaxPrice) {
		return Stock{}, apperr.Validation("initial price must be between %s and %s", MinPrice, MaxPrice)
	}
	if availableQuantity < 0 {
		return Stock{}, apperr.Validation("availableQuantity must not be negative")
	}
	st := Stock{
		Symbol:            symbol,
		Name:              name,
		CurrentPrice:      initialPrice.Round(2),
		InitialPrice:      initialPrice.Round(2),
		AvailableQuantity: availableQuantity,
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Stock{}, apperr.Storage(err)
	}
	defer tx.Rollback(ctx)
	err = tx.QueryRow(ctx,
		"INSERT INTO stocks (symbol, name, current_price, initial_price, available_quantity) VALUES ($1, $2, $3, $3, $4) RETURNING id",
		st.Symbol, st.Name, st.CurrentPrice, st.AvailableQuantity).Scan(&st.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Stock{}, apperr.Conflict(apperr.CodeDuplicateSymbol, "stock with symbol '%s' already exists", symbol)
		}
		return Stock{}, apperr.Storage(err)
	}
	_, err = tx.Exec(ctx,
		"INSERT INTO stock_price_history (stock_id, price) VALUES ($1, $2)",
		st.ID, st.CurrentPrice)
	if err != nil {
		return Stock{}, apperr.Storage(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Stock{}, apperr.Storage(err)
	}
	return st, nil
}

// History returns price-history rows ascending by time, filtered to one
// symbol when given.
func (s *Service) History(ctx context.Context, symbol string) ([]HistoryRow, error) {
	var rows pgx.Rows
	var err error
	if symbol != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT sph.id, sph.stock_id, s.symbol, s.name, sph.price, sph.created_at
			FROM stock_price_history sph
			JOIN stocks s ON sph.stock_id = s.id
			WHERE s.symbol = $1
			ORDER BY sph.created_at ASC`, strings.ToUpper(symbol))
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT sph.id, sph.stock_id, s.symbol, s.name, sph.price, sph.created_at
			FROM stock_price_history sph
			JOIN stocks s ON sph.stock_id = s.id
			ORDER BY sph.created_at ASC`)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()
	out := make([]HistoryRow, 0)
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ID, &h.StockID, &h.Symbol, &h.Name, &h.Price, &h.Timestamp); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
