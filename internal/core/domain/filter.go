package domain

import "fmt"

// SortOrder controls listing ordering. Newest-first is the default; no
// other orderings are supported.
type SortOrder string

const (
	SortNewestFirst SortOrder = "newest"
	SortOldestFirst SortOrder = "oldest"
)

// MoneyRange is an inclusive money interval; a nil bound is open.
type MoneyRange struct {
	Min *Money
	Max *Money
}

// IntRange is an inclusive integer interval; a nil bound is open.
type IntRange struct {
	Min *int
	Max *int
}

// ListingFilter enumerates every filter the public listing query supports.
// Slices are set-membership filters (empty means no constraint), ranges are
// inclusive, scalar pointers are equality filters when non-nil. The struct
// is built once by the caller and validated up front, never mutated during
// query assembly.
type ListingFilter struct {
	Location       string
	Makes          []string
	Models         []string
	Price          MoneyRange
	Year           IntRange
	Mileage        IntRange
	BodyTypes      []string
	FuelTypes      []string
	Transmissions  []string
	Colors         []string
	VerifiedDealer *bool
	FeaturedOnly   bool
	Sort           SortOrder
}

// Page is offset pagination. Limit is clamped by the repository.
type Page struct {
	Offset int
	Limit  int
}

// Validate normalises the filter, applying defaults and rejecting
// malformed ranges.
func (f *ListingFilter) Validate() error {
	if f.Sort == "" {
		f.Sort = SortNewestFirst
	}
	if f.Sort != SortNewestFirst && f.Sort != SortOldestFirst {
		return fmt.Errorf("unsupported sort order %q", f.Sort)
	}
	if f.Price.Min != nil && f.Price.Max != nil && *f.Price.Max < *f.Price.Min {
		return fmt.Errorf("invalid price range: max below min")
	}
	if f.Year.Min != nil && f.Year.Max != nil && *f.Year.Max < *f.Year.Min {
		return fmt.Errorf("invalid year range: max below min")
	}
	if f.Mileage.Min != nil && f.Mileage.Max != nil && *f.Mileage.Max < *f.Mileage.Min {
		return fmt.Errorf("invalid mileage range: max below min")
	}
	return nil
}
