package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"motorlot-ads/internal/core/port"
)

// Handler is the inbound HTTP adapter. It translates requests into
// port.AdUseCase calls and domain errors into status codes; authentication
// is an upstream middleware concern, the handler only reads the dealer id
// it left behind in the X-Dealer-ID header.
type Handler struct {
	svc    port.AdUseCase
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(svc port.AdUseCase, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/campaigns", h.handleCreateCampaign)
		r.Post("/campaigns/{id}/clicks", h.handleClick)
		r.Post("/campaigns/{id}/leads", h.handleLead)
		r.Patch("/campaigns/{id}/status", h.handleUpdateStatus)
		r.Post("/campaigns/{id}/extend", h.handleExtend)
		r.Delete("/campaigns/{id}", h.handleDelete)
		r.Get("/ads", h.handleListAds)
		r.Get("/dealers/{id}/stats", h.handleDealerStats)
		r.Get("/dealers/{id}/wallet", h.handleWallet)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
