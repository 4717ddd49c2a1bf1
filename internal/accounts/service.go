package accounts

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
)

// MaxLoanAmount is the ceiling on a user's total outstanding loan.
var MaxLoanAmount = decimal.NewFromInt(100000)

type Service struct {
	pool   *pgxpool.Pool
	issuer string
	secret []byte
	ttl    time.Duration
}

func NewService(pool *pgxpool.Pool, issuer string, secret []byte, ttl time.Duration) *Service {
	return &Service{pool: pool, issuer: issuer, secret: secret, ttl: ttl}
}

type User struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	Balance    decimal.Decimal `json:"balance"`
	LoanAmount decimal.Decimal `json:"loanAmount"`
}

type LoanResult struct {
	NewBalance    decimal.Decimal `json:"newBalance"`
	NewLoanAmount decimal.Decimal `json:"newLoanAmount"`
}

func (s *Service) Register(ctx context.Context, username, password string, initialBalance decimal.Decimal) (User, error) {
	if username == "" || password == "" {
		return User{}, apperr.Validation("please provide username and password")
	}
	if initialBalance.IsNegative() {
		return User{}, apperr.Validation("initialBalance must not be negative")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperr.Storage(err)
	}
	u := User{Username: username, Balance: initialBalance.Round(2), LoanAmount: decimal.Zero}
	err = s.pool.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, balance) VALUES ($1, $2, $3) RETURNING id",
		username, string(hash), u.Balance).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperr.Conflict(apperr.CodeDuplicateUser, "user with username '%s' already exists", username)
		}
		return User{}, apperr.Storage(err)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, User, error) {
	if username == "" || password == "" {
		return "", User{}, apperr.Validation("please provide username and password")
	}
	var u User
	var hash string
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, balance, loan_amount, password_hash FROM users WHERE username = $1",
		username).Scan(&u.ID, &u.Username, &u.Balance, &u.LoanAmount, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", User{}, apperr.Validation("invalid credentials")
		}
		return "", User{}, apperr.Storage(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", User{}, apperr.Validation("invalid credentials")
	}
	token, err := s.signToken(u.ID)
	if err != nil {
		return "", User{}, apperr.Storage(err)
	}
	return token, u, nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, balance, loan_amount FROM users WHERE id = $1",
		userID).Scan(&u.ID, &u.Username, &u.Balance, &u.LoanAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, apperr.Storage(err)
	}
	return u, nil
}

// TakeLoan increases both balance and loan amount atomically, subject to
// the loan ceiling.
func (s *Service) TakeLoan(ctx context.Context, userID int64, amount decimal.Decimal) (LoanResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return LoanResult{}, apperr.Rule(apperr.CodeInvalidAmount, "loan amount must be positive")
	}
	amount = amount.Round(2)
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return LoanResult{}, apperr.Storage(err)
	}
	defer tx.Rollback(ctx)
	var currentLoan decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT loan_amount FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&currentLoan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoanResult{}, apperr.NotFound("user not found")
		}
		return LoanResult{}, apperr.Storage(err)
	}
	if currentLoan.Add(amount).GreaterThan(MaxLoanAmount) {
		return LoanResult{}, apperr.Rule(apperr.CodeLoanLimitExceeded,
			"loan request (%s) exceeds maximum loan limit; current loan: %s, max allowed: %s",
			amount, currentLoan, MaxLoanAmount.Sub(currentLoan))
	}
	var res LoanResult
	err = tx.QueryRow(ctx,
		"UPDATE users SET balance = balance + $1, loan_amount = loan_amount + $1 WHERE id = $2 RETURNING balance, loan_amount",
		amount, userID).Scan(&res.NewBalance, &res.NewLoanAmount)
	if err != nil {
		return LoanResult{}, apperr.Storage(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return LoanResult{}, apperr.Storage(err)
	}
	return res, nil
}

func (s *Service) signToken(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) ParseToken(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.Issuer != s.issuer {
		return 0, errors.New("invalid issuer")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid subject")
	}
	return userID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
