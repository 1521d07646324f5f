package httpadapter

import (
	"net/http"
	"time"

	"motorlot-ads/internal/core/port"
)

type dailyStatResponse struct {
	Date           string  `json:"date"`
	Clicks         int64   `json:"clicks"`
	Leads          int64   `json:"leads"`
	Views          int64   `json:"views"`
	ConversionRate float64 `json:"conversionRate"`
}

type statsResponse struct {
	Clicks         int64               `json:"clicks"`
	Leads          int64               `json:"leads"`
	Views          int64               `json:"views"`
	ConversionRate float64             `json:"conversionRate"`
	Daily          []dailyStatResponse `json:"daily"`
}

// handleDealerStats returns the dealer's lifetime totals and trailing
// seven-day series.
func (h *Handler) handleDealerStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	stats, err := h.svc.GetDealerStats(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := statsResponse{
		Clicks:         stats.Clicks,
		Leads:          stats.Leads,
		Views:          stats.Views,
		ConversionRate: stats.ConversionRate,
		Daily:          make([]dailyStatResponse, 0, len(stats.Daily)),
	}
	for _, d := range stats.Daily {
		resp.Daily = append(resp.Daily, dailyStatResponse{
			Date:           d.Date,
			Clicks:         d.Clicks,
			Leads:          d.Leads,
			Views:          d.Views,
			ConversionRate: d.ConversionRate,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type transactionResponse struct {
	ID         string `json:"id"`
	OccurredAt string `json:"occurredAt"`
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
}

type walletResponse struct {
	TotalBalance   string                `json:"totalBalance"`
	ReserveBalance string                `json:"reserveBalance"`
	SpentBalance   string                `json:"spentBalance"`
	Transactions   []transactionResponse `json:"transactions"`
}

// handleWallet returns the dealer's balances and recent ledger lines.
// Only the wallet owner may read it.
func (h *Handler) handleWallet(w http.ResponseWriter, r *http.Request) {
	caller, err := dealerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if caller != id {
		h.writeError(w, port.ErrUnauthorized)
		return
	}
	view, err := h.svc.GetWallet(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := walletResponse{
		TotalBalance:   view.Wallet.TotalBalance.String(),
		ReserveBalance: view.Wallet.ReserveBalance.String(),
		SpentBalance:   view.Wallet.SpentBalance.String(),
		Transactions:   make([]transactionResponse, 0, len(view.Transactions)),
	}
	for _, tx := range view.Transactions {
		resp.Transactions = append(resp.Transactions, transactionResponse{
			ID:         tx.ID,
			OccurredAt: tx.OccurredAt.Format(time.RFC3339),
			Title:      tx.Title,
			Amount:     tx.Amount.String(),
			Type:       string(tx.Type),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}
