package httpadapter

import (
	"net/http"
	"net/url"
	"strconv"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

// handleListAds serves the public listing. Filters arrive as query
// parameters; set filters (make, bodyType, ...) may repeat.
func (h *Handler) handleListAds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ListingFilter{
		Location:      q.Get("location"),
		Makes:         q["make"],
		Models:        q["model"],
		BodyTypes:     q["bodyType"],
		FuelTypes:     q["fuelType"],
		Transmissions: q["transmission"],
		Colors:        q["color"],
		FeaturedOnly:  q.Get("featured") == "true",
		Sort:          domain.SortOrder(q.Get("sort")),
	}
	var err error
	if filter.Price.Min, err = moneyParam(q, "priceMin"); err != nil {
		http.Error(w, "invalid priceMin", http.StatusBadRequest)
		return
	}
	if filter.Price.Max, err = moneyParam(q, "priceMax"); err != nil {
		http.Error(w, "invalid priceMax", http.StatusBadRequest)
		return
	}
	if filter.Year.Min, err = intParam(q, "yearMin"); err != nil {
		http.Error(w, "invalid yearMin", http.StatusBadRequest)
		return
	}
	if filter.Year.Max, err = intParam(q, "yearMax"); err != nil {
		http.Error(w, "invalid yearMax", http.StatusBadRequest)
		return
	}
	if filter.Mileage.Min, err = intParam(q, "mileageMin"); err != nil {
		http.Error(w, "invalid mileageMin", http.StatusBadRequest)
		return
	}
	if filter.Mileage.Max, err = intParam(q, "mileageMax"); err != nil {
		http.Error(w, "invalid mileageMax", http.StatusBadRequest)
		return
	}
	if raw := q.Get("verifiedDealer"); raw != "" {
		verified := raw == "true"
		filter.VerifiedDealer = &verified
	}

	page := domain.Page{}
	offset, err := intParam(q, "offset")
	if err != nil {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}
	if offset != nil {
		page.Offset = *offset
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	if limit != nil {
		page.Limit = *limit
	}

	listing, err := h.svc.ListAds(r.Context(), filter, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func moneyParam(q url.Values, name string) (*domain.Money, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	m, err := domain.ParseMoney(raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

type vehicleResponse struct {
	ID             int64  `json:"id"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	Year           int    `json:"year"`
	Price          string `json:"price"`
	Mileage        int    `json:"mileage"`
	BodyType       string `json:"bodyType"`
	FuelType       string `json:"fuelType"`
	Transmission   string `json:"transmission"`
	Color          string `json:"color"`
	Location       string `json:"location"`
	DealerVerified bool   `json:"dealerVerified"`
}

type listingItemResponse struct {
	Ad      adResponse      `json:"ad"`
	Vehicle vehicleResponse `json:"vehicle"`
}

type listingResponse struct {
	Items         []listingItemResponse `json:"items"`
	TotalMatches  int64                 `json:"totalMatches"`
	TotalVehicles int64                 `json:"totalVehicles"`
	Facets        port.Facets           `json:"facets"`
}

func toListingResponse(listing *port.Listing) listingResponse {
	resp := listingResponse{
		Items:         make([]listingItemResponse, 0, len(listing.Items)),
		TotalMatches:  listing.TotalMatches,
		TotalVehicles: listing.TotalVehicles,
		Facets:        listing.Facets,
	}
	for _, item := range listing.Items {
		ad := item.Ad
		resp.Items = append(resp.Items, listingItemResponse{
			Ad: toAdResponse(&ad),
			Vehicle: vehicleResponse{
				ID:             item.Vehicle.ID,
				Make:           item.Vehicle.Make,
				Model:          item.Vehicle.Model,
				Year:           item.Vehicle.Year,
				Price:          item.Vehicle.Price.String(),
				Mileage:        item.Vehicle.Mileage,
				BodyType:       item.Vehicle.BodyType,
				FuelType:       item.Vehicle.FuelType,
				Transmission:   item.Vehicle.Transmission,
				Color:          item.Vehicle.Color,
				Location:       item.Vehicle.Location,
				DealerVerified: item.Vehicle.DealerVerified,
			},
		})
	}
	return resp
}
