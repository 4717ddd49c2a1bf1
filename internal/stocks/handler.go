package stocks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
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
	Symbol            string           `json:"symbol"`
	Name              string           `json:"name"`
	InitialPrice      *decimal.Decimal `json:"initialPrice"`
	AvailableQuantity *int64           `json:"availableQuantity"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperr.Validation("%s", err.Error()))
		return
	}
	if req.InitialPrice == nil || req.AvailableQuantity == nil {
		httputil.WriteError(w, r, apperr.Validation("please provide symbol, name, initialPrice, and availableQuantity"))
		return
	}
	stock, err := h.svc.Register(r.Context(), req.Symbol, req.Name, *req.InitialPrice, *req.AvailableQuantity)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Stock registered successfully.",
		"stock":   stock,
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	rows, err := h.svc.History(r.Context(), symbol)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}
