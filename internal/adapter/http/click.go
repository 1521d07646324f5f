package httpadapter

import (
	"encoding/json"
	"net/http"

	"motorlot-ads/internal/core/port"
)

type clickRequest struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
}

type clickResponse struct {
	Charged bool `json:"charged"`
	Stopped bool `json:"stopped"`
}

// handleClick registers a click from an authenticated user or an anonymous
// device. Missing both identities is a caller error.
func (h *Handler) handleClick(w http.ResponseWriter, r *http.Request) {
	adID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	result, err := h.svc.RegisterClick(r.Context(), adID, port.ViewerIdentity{
		UserID:   req.UserID,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, clickResponse{Charged: result.Charged, Stopped: result.Stopped})
}

type leadRequest struct {
	UserID string `json:"userId"`
}

// handleLead records a lead, rejecting duplicates per user.
func (h *Handler) handleLead(w http.ResponseWriter, r *http.Request) {
	adID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.svc.RegisterLead(r.Context(), adID, req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
