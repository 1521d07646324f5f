package domain

import "time"

// Vehicle carries the listing attributes the ad engine needs for display
// joins and filter facets. Vehicles are owned by the marketplace CRUD
// layer; the engine only ever reads them.
type Vehicle struct {
	ID             int64
	DealerID       int64
	Make           string
	Model          string
	Year           int
	Price          Money
	Mileage        int
	BodyType       string
	FuelType       string
	Transmission   string
	Color          string
	Location       string
	DealerVerified bool
	CreatedAt      time.Time
}
