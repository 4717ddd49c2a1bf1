package reports

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
)

// Service is read-only; every report derives from the transaction log and
// current user/stock state.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

type Position struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	QuantityOwned int64           `json:"quantityOwned"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
}

type UserReport struct {
	UserID              int64           `json:"userId"`
	Username            string          `json:"username"`
	CurrentBalance      decimal.Decimal `json:"currentBalance"`
	LoanAmount          decimal.Decimal `json:"loanAmount"`
	Portfolio           []Position      `json:"portfolio"`
	TotalPortfolioValue decimal.Decimal `json:"totalPortfolioValue"`
	TotalProfitLoss     decimal.Decimal `json:"totalProfitLoss"`
}

type StockReport struct {
	ID                int64           `json:"id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	CurrentPrice      decimal.Decimal `json:"currentPrice"`
	InitialPrice      decimal.Decimal `json:"initialPrice"`
	PriceChange       decimal.Decimal `json:"priceChange"`
	PercentageChange  decimal.Decimal `json:"percentageChange"`
	TotalVolumeTraded int64           `json:"totalVolumeTraded"`
	TotalValueTraded  decimal.Decimal `json:"totalValueTraded"`
}

type TopUser struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Balance       decimal.Decimal `json:"currentBalance"`
	LoanAmount    decimal.Decimal `json:"loanAmount"`
	NetProfitLoss decimal.Decimal `json:"netProfitLoss"`
}

type TopStock struct {
	ID               int64           `json:"id"`
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	CurrentPrice     decimal.Decimal `json:"currentPrice"`
	TotalTradedValue decimal.Decimal `json:"totalTradedValue"`
}

// UserReport returns held positions, market values, and realized plus
// unrealized P/L for one user. Position P/L is
// marketValue - totalBuyCost + totalSellRevenue over that stock's trades.
func (s *Service) UserReport(ctx context.Context, userID int64) (UserReport, error) {
	var rep UserReport
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, balance, loan_amount FROM users WHERE id = $1",
		userID).Scan(&rep.UserID, &rep.Username, &rep.CurrentBalance, &rep.LoanAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserReport{}, apperr.NotFound("user not found")
		}
		return UserReport{}, apperr.Storage(err)
	}
	rep.CurrentBalance = rep.CurrentBalance.Round(2)
	rep.LoanAmount = rep.LoanAmount.Round(2)

	rows, err := s.pool.Query(ctx, `
		SELECT
			s.symbol,
			s.name,
			s.current_price,
			SUM(CASE WHEN t.type = 'BUY' THEN t.quantity ELSE 0 END) - SUM(CASE WHEN t.type = 'SELL' THEN t.quantity ELSE 0 END) AS quantity_owned,
			SUM(CASE WHEN t.type = 'BUY' THEN t.total_amount ELSE 0 END) AS total_buy_cost,
			SUM(CASE WHEN t.type = 'SELL' THEN t.total_amount ELSE 0 END) AS total_sell_revenue
		FROM transactions t
		JOIN stocks s ON t.stock_id = s.id
		WHERE t.user_id = $1
		GROUP BY s.symbol, s.name, s.current_price
		HAVING SUM(CASE WHEN t.type = 'BUY' THEN t.quantity ELSE 0 END) - SUM(CASE WHEN t.type = 'SELL' THEN t.quantity ELSE 0 END) > 0
		ORDER BY s.symbol`, userID)
	if err != nil {
		return UserReport{}, apperr.Storage(err)
	}
	defer rows.Close()

	rep.Portfolio = make([]Position, 0)
	totalValue := decimal.Zero
	for rows.Next() {
		var p Position
		var buyCost, sellRevenue decimal.Decimal
		if err := rows.Scan(&p.Symbol, &p.Name, &p.CurrentPrice, &p.QuantityOwned, &buyCost, &sellRevenue); err != nil {
			return UserReport{}, apperr.Storage(err)
		}
		p.CurrentPrice = p.CurrentPrice.Round(2)
		p.MarketValue = p.CurrentPrice.Mul(decimal.NewFromInt(p.QuantityOwned)).Round(2)
		p.ProfitLoss = p.MarketValue.Sub(buyCost).Add(sellRevenue).Round(2)
		totalValue = totalValue.Add(p.MarketValue)
		rep.Portfolio = append(rep.Portfolio, p)
	}
	if err := rows.Err(); err != nil {
		return UserReport{}, apperr.Storage(err)
	}
	rep.TotalPortfolioValue = totalValue.Round(2)

	var totalSells, totalBuys decimal.Decimal
	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'SELL' THEN total_amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN total_amount ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = $1`, userID).Scan(&totalSells, &totalBuys)
	if err != nil {
		return UserReport{}, apperr.Storage(err)
	}
	rep.TotalProfitLoss = totalSells.Sub(totalBuys).Round(2)
	return rep, nil
}

// StockReport returns performance rows for all stocks, or one when a
// symbol is given.
func (s *Service) StockReport(ctx context.Context, symbol string) ([]StockReport, error) {
	query := `
		SELECT
			s.id,
			s.symbol,
			s.name,
			s.current_price,
			s.initial_price,
			COALESCE(SUM(t.quantity), 0) AS total_volume_traded,
			COALESCE(SUM(t.total_amount), 0) AS total_value_traded
		FROM stocks s
		LEFT JOIN transactions t ON s.id = t.stock_id`
	var args []any
	if symbol != "" {
		query += " WHERE s.symbol = $1"
		args = append(args, strings.ToUpper(symbol))
	}
	query += `
		GROUP BY s.id, s.symbol, s.name, s.current_price, s.initial_price
		ORDER BY s.symbol ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	out := make([]StockReport, 0)
	hundred := decimal.NewFromInt(100)
	for rows.Next() {
		var r StockReport
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Name, &r.CurrentPrice, &r.InitialPrice, &r.TotalVolumeTraded, &r.TotalValueTraded); err != nil {
			return nil, apperr.Storage(err)
		}
		r.CurrentPrice = r.CurrentPrice.Round(2)
		r.InitialPrice = r.InitialPrice.Round(2)
		r.PriceChange = r.CurrentPrice.Sub(r.InitialPrice).Round(2)
		if !r.InitialPrice.IsZero() {
			r.PercentageChange = r.PriceChange.Div(r.InitialPrice).Mul(hundred).Round(2)
		}
		r.TotalValueTraded = r.TotalValueTraded.Round(2)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

// TopUsers returns the ten best users by net P/L over all their trades.
func (s *Service) TopUsers(ctx context.Context) ([]TopUser, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			u.id,
			u.username,
			u.balance,
			u.loan_amount,
			COALESCE(SUM(CASE WHEN t.type = 'SELL' THEN t.total_amount ELSE 0 END), 0)
				- COALESCE(SUM(CASE WHEN t.type = 'BUY' THEN t.total_amount ELSE 0 END), 0) AS net_profit_loss
		FROM users u
		LEFT JOIN transactions t ON u.id = t.user_id
		GROUP BY u.id, u.username, u.balance, u.loan_amount
		ORDER BY net_profit_loss DESC
		LIMIT 10`)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	out := make([]TopUser, 0, 10)
	for rows.Next() {
		var u TopUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Balance, &u.LoanAmount, &u.NetProfitLoss); err != nil {
			return nil, apperr.Storage(err)
		}
		u.Balance = u.Balance.Round(2)
		u.LoanAmount = u.LoanAmount.Round(2)
		u.NetProfitLoss = u.NetProfitLoss.Round(2)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

// TopStocks returns the ten most traded stocks by total traded value.
func (s *Service) TopStocks(ctx context.Context) ([]TopStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			s.id,
			s.symbol,
			s.name,
			s.current_price,
			COALESCE(SUM(t.total_amount), 0) AS total_traded_value
		FROM stocks s
		JOIN transactions t ON s.id = t.stock_id
		GROUP BY s.id, s.symbol, s.name, s.current_price
		ORDER BY total_traded_value DESC
		LIMIT 10`)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	out := make([]TopStock, 0, 10)
	for rows.Next() {
		var st TopStock
		if err := rows.Scan(&st.ID, &st.Symbol, &st.Name, &st.CurrentPrice, &st.TotalTradedValue); err != nil {
			return nil, apperr.Storage(err)
		}
		st.CurrentPrice = st.CurrentPrice.Round(2)
		st.TotalTradedValue = st.TotalTradedValue.Round(2)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}
