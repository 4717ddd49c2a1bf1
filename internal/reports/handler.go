package reports

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Anand95733/stock-trading-simulation-backend/internal/apperr"
	"github.com/Anand95733/stock-trading-simulation-backend/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) UserReport(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || userID <= 0 {
		httputil.WriteError(w, r, apperr.Validation("please provide a valid userId"))
		return
	}
	rep, err := h.svc.UserReport(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) StockReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.StockReport(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) TopUsers(w http.ResponseWriter, r *http.Request) {
	top, err := h.svc.TopUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, top)
}

func (h *Handler) TopStocks(w http.ResponseWriter, r *http.Request) {
	top, err := h.svc.TopStocks(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, top)
}
