package accounts

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Username       string           `json:"username"`
	Password       string           `json:"password"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loanRequest struct {
	UserID int64            `json:"userId"`
	Amount *decimal.Decimal `json:"amount"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperr.Validation("%s", err.Error()))
		return
	}
	initial := decimal.Zero
	if req.InitialBalance != nil {
		initial = *req.InitialBalance
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Password, initial)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully.",
		"user":    user,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperr.Validation("%s", err.Error()))
		return
	}
	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// Credential mismatches surface as 401, not 400.
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindValidation {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid credentials"})
			return
		}
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"userId":      user.ID,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, userID int64) {
	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) TakeLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperr.Validation("%s", err.Error()))
		return
	}
	if req.UserID <= 0 || req.Amount == nil {
		httputil.WriteError(w, r, apperr.Validation("please provide a valid userId and a positive loan amount"))
		return
	}
	res, err := h.svc.TakeLoan(r.Context(), req.UserID, *req.Amount)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Loan processed successfully.",
		"newBalance":    res.NewBalance,
		"newLoanAmount": res.NewLoanAmount,
	})
}
