package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"motorlot-ads/internal/core/port"
)

type errorBody struct {
	Error        string `json:"error"`
	Shortage     string `json:"shortage,omitempty"`
	CampaignDays int    `json:"campaignDays,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError maps domain errors onto status codes. Storage failures are
// logged with detail but reported generically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var fundsErr *port.InsufficientFundsError
	switch {
	case errors.As(err, &fundsErr):
		h.writeJSON(w, http.StatusPaymentRequired, errorBody{
			Error:        "insufficient funds",
			Shortage:     fundsErr.Shortage().String(),
			CampaignDays: fundsErr.CampaignDays,
		})
	case errors.Is(err, port.ErrInsufficientReservedFunds):
		h.writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error()})
	case errors.Is(err, port.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, port.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, port.ErrUnauthorized):
		h.writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, port.ErrDuplicateLead),
		errors.Is(err, port.ErrCampaignExpired),
		errors.Is(err, port.ErrBudgetExhausted),
		errors.Is(err, port.ErrInvalidExtension):
		h.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// dealerID reads the dealer identity established by the auth middleware.
func dealerID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-Dealer-ID")
	if raw == "" {
		return 0, errors.New("missing X-Dealer-ID header")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
