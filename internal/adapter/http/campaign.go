package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

const dateLayout = "2006-01-02"

type createCampaignRequest struct {
	VehicleID   int64  `json:"vehicleId"`
	AdType      string `json:"adType"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	DailyBudget string `json:"dailyBudget"`
}

type adResponse struct {
	ID          int64  `json:"id"`
	VehicleID   int64  `json:"vehicleId"`
	DealerID    int64  `json:"dealerId"`
	AdType      string `json:"adType"`
	Status      string `json:"status"`
	PauseReason string `json:"pauseReason"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	DailyBudget string `json:"dailyBudget"`
	Views       int64  `json:"views"`
	Clicks      int64  `json:"clicks"`
	Leads       int64  `json:"leads"`
	AmountSpent string `json:"amountSpent"`
}

func toAdResponse(ad *domain.Advertisement) adResponse {
	resp := adResponse{
		ID:          ad.ID,
		VehicleID:   ad.VehicleID,
		DealerID:    ad.DealerID,
		AdType:      string(ad.Type),
		Status:      string(ad.Status),
		PauseReason: string(ad.PauseReason),
		DailyBudget: ad.DailyBudget.String(),
		Views:       ad.Views,
		Clicks:      ad.Clicks,
		Leads:       ad.Leads,
		AmountSpent: ad.AmountSpent.String(),
	}
	if !ad.StartDate.IsZero() {
		resp.StartDate = ad.StartDate.Format(dateLayout)
	}
	if !ad.EndDate.IsZero() {
		resp.EndDate = ad.EndDate.Format(dateLayout)
	}
	return resp
}

// handleCreateCampaign opens a campaign for the calling dealer, reserving
// funds for sponsored placements.
func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	caller, err := dealerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	in := port.CreateCampaignInput{
		VehicleID: req.VehicleID,
		DealerID:  caller,
		Type:      domain.AdType(req.AdType),
	}
	if req.StartDate != "" {
		if in.StartDate, err = time.Parse(dateLayout, req.StartDate); err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
	}
	if req.EndDate != "" {
		if in.EndDate, err = time.Parse(dateLayout, req.EndDate); err != nil {
			http.Error(w, "invalid endDate", http.StatusBadRequest)
			return
		}
	}
	if req.DailyBudget != "" {
		if in.DailyBudget, err = domain.ParseMoney(req.DailyBudget); err != nil {
			http.Error(w, "invalid dailyBudget", http.StatusBadRequest)
			return
		}
	}
	ad, err := h.svc.CreateCampaign(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toAdResponse(ad))
}

type statusRequest struct {
	Status  string `json:"status"`
	EndDate string `json:"endDate"`
}

// handleUpdateStatus applies a user-driven start/stop.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := dealerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	adID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	in := port.UpdateStatusInput{
		AdID:           adID,
		CallerDealerID: caller,
		Status:         domain.AdStatus(req.Status),
	}
	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			http.Error(w, "invalid endDate", http.StatusBadRequest)
			return
		}
		in.NewEndDate = &end
	}
	ad, err := h.svc.UpdateStatus(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAdResponse(ad))
}

type extendRequest struct {
	EndDate     string `json:"endDate"`
	DailyBudget string `json:"dailyBudget"`
	StartDate   string `json:"startDate"`
}

// handleExtend lengthens a sponsored campaign.
func (h *Handler) handleExtend(w http.ResponseWriter, r *http.Request) {
	caller, err := dealerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	adID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	in := port.ExtendCampaignInput{AdID: adID, CallerDealerID: caller}
	if in.NewEndDate, err = time.Parse(dateLayout, req.EndDate); err != nil {
		http.Error(w, "invalid endDate", http.StatusBadRequest)
		return
	}
	if in.NewDailyBudget, err = domain.ParseMoney(req.DailyBudget); err != nil {
		http.Error(w, "invalid dailyBudget", http.StatusBadRequest)
		return
	}
	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		in.NewStartDate = &start
	}
	ad, err := h.svc.ExtendCampaign(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAdResponse(ad))
}

// handleDelete hard-deletes a campaign, refunding unspent reserved funds.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := dealerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	adID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteCampaign(r.Context(), adID, caller); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
