package trading

import (
	"net/http"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type tradeRequest struct {
	UserID      int64  `json:"userId"`
	StockSymbol string `json:"stockSymbol"`
	Quantity    int64  `json:"quantity"`
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperr.Validation("%s", err.Error()))
		return
	}
	res, err := h.svc.Buy(r.Context(), req.UserID, req.StockSymbol, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Stock purchased successfully.",
		"transactionId": res.TransactionID,
		"symbol":        res.Symbol,
		"quantity":      res.Quantity,
		"pricePerShare": res.PricePerShare,
		"totalCost":     res.TotalAmount,
		"newBalance":    res.NewBalance,
	})
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, r, apperr.Validation("%s", err.Error()))
		return
	}
	res, err := h.svc.Sell(r.Context(), req.UserID, req.StockSymbol, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Stock sold successfully.",
		"transactionId": res.TransactionID,
		"symbol":        res.Symbol,
		"quantity":      res.Quantity,
		"pricePerShare": res.PricePerShare,
		"totalRevenue":  res.TotalAmount,
		"newBalance":    res.NewBalance,
	})
}
