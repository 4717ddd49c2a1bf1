package trading

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
)

// SuspensionFloor is the balance below which trading is refused.
var SuspensionFloor = decimal.NewFromInt(-5000)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

type Result struct {
	TransactionID int64           `json:"transactionId"`
	Side          Side            `json:"type"`
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"`
	PricePerShare decimal.Decimal `json:"pricePerShare"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

func (s *Service) Buy(ctx context.Context, userID int64, symbol string, quantity int64) (Result, error) {
	return s.execute(ctx, userID, symbol, quantity, SideBuy)
}

func (s *Service) Sell(ctx context.Context, userID int64, symbol string, quantity int64) (Result, error) {
	return s.execute(ctx, userID, symbol, quantity, SideSell)
}

// execute runs one order as a single transaction. The user and stock rows
// are locked FOR UPDATE before any check, so the price, balance, and
// inventory the order validates against are the ones it mutates; a pricing
// tick committed after the lock is taken cannot make the trade stale.
// Lock order is always user then stock.
func (s *Service) execute(ctx context.Context, userID int64, symbol string, quantity int64, side Side) (Result, error) {
	if userID <= 0 {
		return Result{}, apperr.Validation("please provide a valid userId")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Result{}, apperr.Validation("please provide a stockSymbol")
	}
	if quantity <= 0 {
		return Result{}, apperr.Validation("quantity must be a positive integer")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, apperr.Storage(err)
	}
	defer tx.Rollback(ctx)

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT balance FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, apperr.NotFound("user not found")
		}
		return Result{}, apperr.Storage(err)
	}

	var stockID int64
	var price decimal.Decimal
	var available int64
	err = tx.QueryRow(ctx,
		"SELECT id, current_price, available_quantity FROM stocks WHERE symbol = $1 FOR UPDATE",
		symbol).Scan(&stockID, &price, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, apperr.NotFound("stock '%s' not found", symbol)
		}
		return Result{}, apperr.Storage(err)
	}

	if balance.LessThan(SuspensionFloor) {
		return Result{}, apperr.Rule(apperr.CodeTradingSuspended,
			"trading suspended: balance %s is below the floor of %s", balance, SuspensionFloor)
	}

	amount := price.Mul(decimal.NewFromInt(quantity)).Round(2)

	switch side {
	case SideBuy:
		if amount.GreaterThan(balance) {
			return Result{}, apperr.Rule(apperr.CodeInsufficientFunds,
				"insufficient funds: cost %s exceeds balance %s", amount, balance)
		}
		if quantity > available {
			return Result{}, apperr.Rule(apperr.CodeInsufficientInventory,
				"insufficient inventory: %d shares requested, %d available", quantity, available)
		}
	case SideSell:
		held, err := s.heldQuantity(ctx, tx, userID, stockID)
		if err != nil {
			return Result{}, apperr.Storage(err)
		}
		if quantity > held {
			return Result{}, apperr.Rule(apperr.CodeInsufficientHoldings,
				"insufficient holdings: %d shares requested, %d held", quantity, held)
		}
	default:
		return Result{}, apperr.Validation("invalid trade type")
	}

	delta := amount
	qtyDelta := quantity
	if side == SideBuy {
		delta = amount.Neg()
		qtyDelta = -quantity
	}

	// The returned balance is the committed row value, not a local estimate.
	var newBalance decimal.Decimal
	err = tx.QueryRow(ctx,
		"UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance",
		delta, userID).Scan(&newBalance)
	if err != nil {
		return Result{}, apperr.Storage(err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE stocks SET available_quantity = available_quantity + $1 WHERE id = $2",
		qtyDelta, stockID); err != nil {
		return Result{}, apperr.Storage(err)
	}
	var txnID int64
	err = tx.QueryRow(ctx,
		"INSERT INTO transactions (user_id, stock_id, type, quantity, price_per_share, total_amount) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		userID, stockID, string(side), quantity, price, amount).Scan(&txnID)
	if err != nil {
		return Result{}, apperr.Storage(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, apperr.Storage(err)
	}

	return Result{
		TransactionID: txnID,
		Side:          side,
		Symbol:        symbol,
		Quantity:      quantity,
		PricePerShare: price,
		TotalAmount:   amount,
		NewBalance:    newBalance,
	}, nil
}

// heldQuantity derives the user's position from the transaction log. There
// is no holdings column; the log is the source of truth.
func (s *Service) heldQuantity(ctx context.Context, tx pgx.Tx, userID, stockID int64) (int64, error) {
	var held int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'BUY' THEN quantity ELSE -quantity END), 0)
		FROM transactions
		WHERE user_id = $1 AND stock_id = $2`, userID, stockID).Scan(&held)
	return held, err
}
