// Package memory provides an in-memory AdRepository used by tests and
// local development. A single store mutex serializes transactions, giving
// the same observable semantics as the Postgres row-locking implementation.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

// Repository is an in-memory implementation of port.AdRepository and
// port.VehicleDirectory.
type Repository struct {
	mu sync.Mutex

	ads      map[int64]*domain.Advertisement
	wallets  map[int64]*domain.Wallet // keyed by dealer id
	txs      map[int64][]domain.Transaction
	vehicles map[int64]domain.Vehicle

	nextAdID     int64
	nextWalletID int64
}

// New creates an empty store.
func New() *Repository {
	return &Repository{
		ads:      make(map[int64]*domain.Advertisement),
		wallets:  make(map[int64]*domain.Wallet),
		txs:      make(map[int64][]domain.Transaction),
		vehicles: make(map[int64]domain.Vehicle),
	}
}

// PutVehicle registers a vehicle for existence checks and listing joins.
func (r *Repository) PutVehicle(v domain.Vehicle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID] = v
}

// VehicleExists implements port.VehicleDirectory.
func (r *Repository) VehicleExists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.vehicles[id]
	return ok, nil
}

// WithTx serializes fn against all other transactions and rolls the store
// back if fn fails, so partial mutations are never observed.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo port.AdRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snapshot()
	if err := fn(ctx, &txView{r}); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	ads     map[int64]*domain.Advertisement
	wallets map[int64]*domain.Wallet
	txs     map[int64][]domain.Transaction
}

func (r *Repository) snapshot() storeSnapshot {
	snap := storeSnapshot{
		ads:     make(map[int64]*domain.Advertisement, len(r.ads)),
		wallets: make(map[int64]*domain.Wallet, len(r.wallets)),
		txs:     make(map[int64][]domain.Transaction, len(r.txs)),
	}
	for id, ad := range r.ads {
		snap.ads[id] = copyAd(ad)
	}
	for id, w := range r.wallets {
		cp := *w
		snap.wallets[id] = &cp
	}
	for id, list := range r.txs {
		snap.txs[id] = slices.Clone(list)
	}
	return snap
}

func (r *Repository) restore(snap storeSnapshot) {
	r.ads = snap.ads
	r.wallets = snap.wallets
	r.txs = snap.txs
}

// txView exposes the locked store inside a transaction. Nested WithTx
// calls join the ambient transaction.
type txView struct {
	r *Repository
}

func (t *txView) WithTx(ctx context.Context, fn func(ctx context.Context, repo port.AdRepository) error) error {
	return fn(ctx, t)
}

func (t *txView) CreateAd(ctx context.Context, ad *domain.Advertisement) error {
	return t.r.createAd(ad)
}
func (t *txView) GetAd(ctx context.Context, id int64) (*domain.Advertisement, error) {
	return t.r.getAd(id)
}
func (t *txView) UpdateAd(ctx context.Context, ad *domain.Advertisement) error {
	return t.r.updateAd(ad)
}
func (t *txView) DeleteAd(ctx context.Context, id int64) error { return t.r.deleteAd(id) }
func (t *txView) GetOrCreateWallet(ctx context.Context, dealerID int64) (*domain.Wallet, error) {
	return t.r.getOrCreateWallet(dealerID)
}
func (t *txView) UpdateWallet(ctx context.Context, w *domain.Wallet) error {
	return t.r.updateWallet(w)
}
func (t *txView) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	return t.r.appendTransaction(tx)
}
func (t *txView) ListTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error) {
	return t.r.listTransactions(walletID, limit)
}
func (t *txView) ListAds(ctx context.Context, f domain.ListingFilter, p domain.Page) (*port.Listing, error) {
	return t.r.listAds(f, p)
}
func (t *txView) ListDealerAds(ctx context.Context, dealerID int64) ([]domain.Advertisement, error) {
	return t.r.listDealerAds(dealerID)
}
func (t *txView) ListExpiredRunning(ctx context.Context, today time.Time) ([]int64, error) {
	return t.r.listExpiredRunning(today)
}
func (t *txView) ListBudgetExceeded(ctx context.Context, today time.Time, cost domain.Money) ([]int64, error) {
	return t.r.listBudgetExceeded(today, cost)
}
func (t *txView) ListRolloverDue(ctx context.Context, today time.Time) ([]int64, error) {
	return t.r.listRolloverDue(today)
}

// Root-level methods lock per call (implicit single-statement transactions).

func (r *Repository) CreateAd(_ context.Context, ad *domain.Advertisement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createAd(ad)
}

func (r *Repository) GetAd(_ context.Context, id int64) (*domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getAd(id)
}

func (r *Repository) UpdateAd(_ context.Context, ad *domain.Advertisement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateAd(ad)
}

func (r *Repository) DeleteAd(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteAd(id)
}

func (r *Repository) GetOrCreateWallet(_ context.Context, dealerID int64) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateWallet(dealerID)
}

func (r *Repository) UpdateWallet(_ context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateWallet(w)
}

func (r *Repository) AppendTransaction(_ context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendTransaction(tx)
}

func (r *Repository) ListTransactions(_ context.Context, walletID int64, limit int) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listTransactions(walletID, limit)
}

func (r *Repository) ListAds(_ context.Context, f domain.ListingFilter, p domain.Page) (*port.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listAds(f, p)
}

func (r *Repository) ListDealerAds(_ context.Context, dealerID int64) ([]domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listDealerAds(dealerID)
}

func (r *Repository) ListExpiredRunning(_ context.Context, today time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listExpiredRunning(today)
}

func (r *Repository) ListBudgetExceeded(_ context.Context, today time.Time, cost domain.Money) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listBudgetExceeded(today, cost)
}

func (r *Repository) ListRolloverDue(_ context.Context, today time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listRolloverDue(today)
}

// Locked internals.

func copyAd(ad *domain.Advertisement) *domain.Advertisement {
	cp := *ad
	cp.UserClicks = slices.Clone(ad.UserClicks)
	cp.UserLeads = slices.Clone(ad.UserLeads)
	return &cp
}

func (r *Repository) createAd(ad *domain.Advertisement) error {
	r.nextAdID++
	ad.ID = r.nextAdID
	r.ads[ad.ID] = copyAd(ad)
	return nil
}

func (r *Repository) getAd(id int64) (*domain.Advertisement, error) {
	ad, ok := r.ads[id]
	if !ok {
		return nil, fmt.Errorf("%w: advertisement %d", port.ErrNotFound, id)
	}
	return copyAd(ad), nil
}

func (r *Repository) updateAd(ad *domain.Advertisement) error {
	if _, ok := r.ads[ad.ID]; !ok {
		return fmt.Errorf("%w: advertisement %d", port.ErrNotFound, ad.ID)
	}
	r.ads[ad.ID] = copyAd(ad)
	return nil
}

func (r *Repository) deleteAd(id int64) error {
	if _, ok := r.ads[id]; !ok {
		return fmt.Errorf("%w: advertisement %d", port.ErrNotFound, id)
	}
	delete(r.ads, id)
	return nil
}

func (r *Repository) getOrCreateWallet(dealerID int64) (*domain.Wallet, error) {
	if w, ok := r.wallets[dealerID]; ok {
		cp := *w
		return &cp, nil
	}
	r.nextWalletID++
	w := &domain.Wallet{ID: r.nextWalletID, DealerID: dealerID}
	r.wallets[dealerID] = w
	cp := *w
	return &cp, nil
}

func (r *Repository) updateWallet(w *domain.Wallet) error {
	if _, ok := r.wallets[w.DealerID]; !ok {
		return fmt.Errorf("%w: wallet for dealer %d", port.ErrNotFound, w.DealerID)
	}
	cp := *w
	r.wallets[w.DealerID] = &cp
	return nil
}

func (r *Repository) appendTransaction(tx domain.Transaction) error {
	r.txs[tx.WalletID] = append(r.txs[tx.WalletID], tx)
	return nil
}

func (r *Repository) listTransactions(walletID int64, limit int) ([]domain.Transaction, error) {
	list := r.txs[walletID]
	out := slices.Clone(list)
	// newest first
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) listDealerAds(dealerID int64) ([]domain.Advertisement, error) {
	var out []domain.Advertisement
	for _, ad := range r.ads {
		if ad.DealerID == dealerID {
			out = append(out, *copyAd(ad))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) listExpiredRunning(today time.Time) ([]int64, error) {
	var out []int64
	for id, ad := range r.ads {
		if ad.Status == domain.AdStatusRunning && ad.Expired(today) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *Repository) listBudgetExceeded(today time.Time, cost domain.Money) ([]int64, error) {
	var out []int64
	for id, ad := range r.ads {
		if ad.Status != domain.AdStatusRunning || !ad.Sponsored() {
			continue
		}
		if ad.LastClickDate.IsZero() || !domain.SameDay(ad.LastClickDate, today) {
			continue
		}
		if ad.BudgetExhausted(cost) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *Repository) listRolloverDue(today time.Time) ([]int64, error) {
	var out []int64
	for id, ad := range r.ads {
		if !ad.Sponsored() {
			continue
		}
		stale := !ad.LastClickDate.IsZero() && !domain.SameDay(ad.LastClickDate, today)
		budgetPaused := ad.Status == domain.AdStatusStopped && ad.PauseReason == domain.PauseBudget
		if stale || budgetPaused {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *Repository) listAds(f domain.ListingFilter, p domain.Page) (*port.Listing, error) {
	type pair struct {
		ad *domain.Advertisement
		v  domain.Vehicle
	}

	var running []pair
	for _, ad := range r.ads {
		if ad.Status != domain.AdStatusRunning {
			continue
		}
		v, ok := r.vehicles[ad.VehicleID]
		if !ok {
			continue
		}
		running = append(running, pair{ad: ad, v: v})
	}

	listing := &port.Listing{
		TotalVehicles: int64(len(r.vehicles)),
		Facets:        emptyFacets(),
	}
	for _, pr := range running {
		listing.Facets.Makes[pr.v.Make]++
		listing.Facets.Models[pr.v.Model]++
		listing.Facets.BodyTypes[pr.v.BodyType]++
		listing.Facets.FuelTypes[pr.v.FuelType]++
		listing.Facets.Transmissions[pr.v.Transmission]++
		listing.Facets.Colors[pr.v.Color]++
		listing.Facets.Locations[pr.v.Location]++
		listing.Facets.Years[pr.v.Year]++
	}

	var matched []pair
	for _, pr := range running {
		if matchesFilter(pr.ad, pr.v, f) {
			matched = append(matched, pr)
		}
	}
	listing.TotalMatches = int64(len(matched))

	sort.Slice(matched, func(i, j int) bool {
		if f.Sort == domain.SortOldestFirst {
			return matched[i].ad.CreatedAt.Before(matched[j].ad.CreatedAt)
		}
		return matched[i].ad.CreatedAt.After(matched[j].ad.CreatedAt)
	})

	start := p.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.Limit
	if p.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	for _, pr := range matched[start:end] {
		listing.Items = append(listing.Items, port.ListingItem{Ad: *copyAd(pr.ad), Vehicle: pr.v})
	}
	return listing, nil
}

func emptyFacets() port.Facets {
	return port.Facets{
		Makes:         map[string]int64{},
		Models:        map[string]int64{},
		BodyTypes:     map[string]int64{},
		FuelTypes:     map[string]int64{},
		Transmissions: map[string]int64{},
		Colors:        map[string]int64{},
		Locations:     map[string]int64{},
		Years:         map[int]int64{},
	}
}

func matchesFilter(ad *domain.Advertisement, v domain.Vehicle, f domain.ListingFilter) bool {
	if f.FeaturedOnly && ad.Type != domain.AdTypeFeatured {
		return false
	}
	if f.Location != "" && !strings.EqualFold(v.Location, f.Location) {
		return false
	}
	if len(f.Makes) > 0 && !containsFold(f.Makes, v.Make) {
		return false
	}
	if len(f.Models) > 0 && !containsFold(f.Models, v.Model) {
		return false
	}
	if len(f.BodyTypes) > 0 && !containsFold(f.BodyTypes, v.BodyType) {
		return false
	}
	if len(f.FuelTypes) > 0 && !containsFold(f.FuelTypes, v.FuelType) {
		return false
	}
	if len(f.Transmissions) > 0 && !containsFold(f.Transmissions, v.Transmission) {
		return false
	}
	if len(f.Colors) > 0 && !containsFold(f.Colors, v.Color) {
		return false
	}
	if f.Price.Min != nil && v.Price < *f.Price.Min {
		return false
	}
	if f.Price.Max != nil && v.Price > *f.Price.Max {
		return false
	}
	if f.Year.Min != nil && v.Year < *f.Year.Min {
		return false
	}
	if f.Year.Max != nil && v.Year > *f.Year.Max {
		return false
	}
	if f.Mileage.Min != nil && v.Mileage < *f.Mileage.Min {
		return false
	}
	if f.Mileage.Max != nil && v.Mileage > *f.Mileage.Max {
		return false
	}
	if f.VerifiedDealer != nil && v.DealerVerified != *f.VerifiedDealer {
		return false
	}
	return true
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
