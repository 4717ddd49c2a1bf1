package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/db"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T) *Service {
	pool := db.RequireTestPool(t)
	return NewService(pool, "stock-sim-test", []byte("test-secret"), time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2", dec("1000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("register returned zero id")
	}
	if !user.Balance.Equal(dec("1000")) {
		t.Errorf("balance = %s, want 1000", user.Balance)
	}
	if !user.LoanAmount.IsZero() {
		t.Errorf("loanAmount = %s, want 0", user.LoanAmount)
	}

	token, got, err := svc.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login id = %d, want %d", got.ID, user.ID)
	}
	parsedID, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if parsedID != user.ID {
		t.Errorf("token subject = %d, want %d", parsedID, user.ID)
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatal("login with wrong password must fail")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob", "pw", decimal.Zero); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "bob", "pw2", decimal.Zero)
	if apperr.CodeOf(err) != apperr.CodeDuplicateUser {
		t.Fatalf("err = %v, want DuplicateUser conflict", err)
	}
	if apperr.HTTPStatus(err) != 409 {
		t.Errorf("status = %d, want 409", apperr.HTTPStatus(err))
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService(nil, "iss", []byte("k"), time.Hour)
	if _, err := svc.Register(context.Background(), "", "pw", decimal.Zero); apperr.HTTPStatus(err) != 400 {
		t.Errorf("missing username err = %v, want validation", err)
	}
	if _, err := svc.Register(context.Background(), "u", "", decimal.Zero); apperr.HTTPStatus(err) != 400 {
		t.Errorf("missing password err = %v, want validation", err)
	}
}

func TestTakeLoanAccounting(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol", "pw", dec("500"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.TakeLoan(ctx, user.ID, dec("40000"))
	if err != nil {
		t.Fatalf("first loan: %v", err)
	}
	if !res.NewBalance.Equal(dec("40500")) || !res.NewLoanAmount.Equal(dec("40000")) {
		t.Errorf("after first loan: balance=%s loan=%s, want 40500/40000", res.NewBalance, res.NewLoanAmount)
	}

	res, err = svc.TakeLoan(ctx, user.ID, dec("60000"))
	if err != nil {
		t.Fatalf("second loan: %v", err)
	}
	if !res.NewLoanAmount.Equal(dec("100000")) {
		t.Errorf("loan = %s, want exactly the 100000 ceiling", res.NewLoanAmount)
	}

	// A third loan would exceed the ceiling; totals must stay put.
	_, err = svc.TakeLoan(ctx, user.ID, dec("0.01"))
	if apperr.CodeOf(err) != apperr.CodeLoanLimitExceeded {
		t.Fatalf("err = %v, want LoanLimitExceeded", err)
	}
	got, err := svc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.LoanAmount.Equal(dec("100000")) {
		t.Errorf("loan after rejection = %s, want 100000", got.LoanAmount)
	}
	if !got.Balance.Equal(dec("100500")) {
		t.Errorf("balance after rejection = %s, want 100500", got.Balance)
	}
}

func TestTakeLoanInvalidAmount(t *testing.T) {
	svc := NewService(nil, "iss", []byte("k"), time.Hour)
	for _, amt := range []string{"0", "-5"} {
		_, err := svc.TakeLoan(context.Background(), 1, dec(amt))
		if apperr.CodeOf(err) != apperr.CodeInvalidAmount {
			t.Errorf("amount %s err = %v, want InvalidAmount", amt, err)
		}
	}
}

func TestTakeLoanUnknownUser(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.TakeLoan(context.Background(), 9999, dec("100"))
	if apperr.HTTPStatus(err) != 404 {
		t.Fatalf("err = %v, want not found", err)
	}
}
