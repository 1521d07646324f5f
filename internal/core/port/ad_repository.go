package port

import (
	"context"
	"time"

	"motorlot-ads/internal/core/domain"
)

// AdRepository is the persistence contract for the ad engine. It is an
// outbound port in hexagonal architecture.
//
// WithTx runs fn against a transactional view of the repository. Reads of
// an Advertisement or Wallet inside a transaction take a row-level lock, so
// two concurrent transactions over the same ad or wallet serialize; rows
// not touched proceed in parallel. Mutations made inside fn are applied
// all-or-nothing: if fn returns an error nothing is persisted.
type AdRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo AdRepository) error) error

	CreateAd(ctx context.Context, ad *domain.Advertisement) error
	GetAd(ctx context.Context, id int64) (*domain.Advertisement, error)
	UpdateAd(ctx context.Context, ad *domain.Advertisement) error
	DeleteAd(ctx context.Context, id int64) error

	// GetOrCreateWallet returns the dealer's wallet, creating an empty one
	// on first use.
	GetOrCreateWallet(ctx context.Context, dealerID int64) (*domain.Wallet, error)
	UpdateWallet(ctx context.Context, w *domain.Wallet) error
	AppendTransaction(ctx context.Context, tx domain.Transaction) error
	ListTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error)

	// ListAds serves the public listing: running ads joined to their
	// vehicles, filtered, paginated, with match/vehicle totals and facet
	// counts for filter UIs.
	ListAds(ctx context.Context, filter domain.ListingFilter, page domain.Page) (*Listing, error)

	// ListDealerAds returns every ad owned by the dealer, any status.
	ListDealerAds(ctx context.Context, dealerID int64) ([]domain.Advertisement, error)

	// Reconciler candidate scans. Each returns ad IDs only; the reconciler
	// re-reads and re-checks every row inside its own transaction so the
	// scans can be loose snapshots.
	ListExpiredRunning(ctx context.Context, today time.Time) ([]int64, error)
	ListBudgetExceeded(ctx context.Context, today time.Time, costPerClick domain.Money) ([]int64, error)
	ListRolloverDue(ctx context.Context, today time.Time) ([]int64, error)
}

// VehicleDirectory is the read-only view of the marketplace vehicle store
// the engine consumes.
type VehicleDirectory interface {
	VehicleExists(ctx context.Context, id int64) (bool, error)
}

// Listing is one page of public listing results.
type Listing struct {
	Items         []ListingItem
	TotalMatches  int64
	TotalVehicles int64
	Facets        Facets
}

// ListingItem pairs an ad with its vehicle for display.
type ListingItem struct {
	Ad      domain.Advertisement
	Vehicle domain.Vehicle
}

// Facets counts running listings per distinct value of each filterable
// attribute, computed over the unfiltered running set.
type Facets struct {
	Makes         map[string]int64
	Models        map[string]int64
	BodyTypes     map[string]int64
	FuelTypes     map[string]int64
	Transmissions map[string]int64
	Colors        map[string]int64
	Locations     map[string]int64
	Years         map[int]int64
}
