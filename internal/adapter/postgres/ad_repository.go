// Package postgres implements the ad engine's persistence ports on
// PostgreSQL via pgxpool. Transactions run serializable and lock the ad
// and wallet rows they touch with SELECT ... FOR UPDATE, so concurrent
// clicks on the same ad serialize while unrelated rows proceed in
// parallel.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type txBeginner interface {
	queryer
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// AdRepository implements port.AdRepository and port.VehicleDirectory.
type AdRepository struct {
	pool txBeginner
	q    queryer
	inTx bool
}

// NewAdRepository returns a repository over the given pool.
func NewAdRepository(pool *pgxpool.Pool) *AdRepository {
	return &AdRepository{pool: pool, q: pool}
}

// WithTx runs fn inside a serializable transaction. Nested calls join the
// ambient transaction. The named return matters: serialization conflicts
// surface at COMMIT, and the deferred assignment must reach the caller.
func (r *AdRepository) WithTx(ctx context.Context, fn func(ctx context.Context, repo port.AdRepository) error) (err error) {
	if r.inTx {
		return fn(ctx, r)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	err = fn(ctx, &AdRepository{pool: r.pool, q: tx, inTx: true})
	return err
}

var adCols = []string{
	"id", "vehicle_id", "dealer_id", "ad_type", "status", "pause_reason",
	"start_date", "end_date", "daily_budget_cents", "clicks_today", "last_click_date",
	"user_clicks", "views", "clicks", "leads", "amount_spent_cents", "user_leads",
	"created_at", "updated_at",
}

var adColumns = strings.Join(adCols, ", ")

func scanAd(row pgx.Row) (*domain.Advertisement, error) {
	var (
		ad        domain.Advertisement
		start     *time.Time
		end       *time.Time
		lastClick *time.Time
	)
	err := row.Scan(
		&ad.ID, &ad.VehicleID, &ad.DealerID, &ad.Type, &ad.Status, &ad.PauseReason,
		&start, &end, &ad.DailyBudget, &ad.ClicksToday, &lastClick,
		&ad.UserClicks, &ad.Views, &ad.Clicks, &ad.Leads, &ad.AmountSpent, &ad.UserLeads,
		&ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if start != nil {
		ad.StartDate = *start
	}
	if end != nil {
		ad.EndDate = *end
	}
	if lastClick != nil {
		ad.LastClickDate = *lastClick
	}
	return &ad, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// CreateAd inserts the advertisement and fills in its generated id.
func (r *AdRepository) CreateAd(ctx context.Context, ad *domain.Advertisement) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO advertisements
			(vehicle_id, dealer_id, ad_type, status, pause_reason,
			 start_date, end_date, daily_budget_cents, clicks_today, last_click_date,
			 user_clicks, views, clicks, leads, amount_spent_cents, user_leads,
			 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`,
		ad.VehicleID, ad.DealerID, ad.Type, ad.Status, ad.PauseReason,
		nullableTime(ad.StartDate), nullableTime(ad.EndDate), ad.DailyBudget,
		ad.ClicksToday, nullableTime(ad.LastClickDate),
		ad.UserClicks, ad.Views, ad.Clicks, ad.Leads, ad.AmountSpent, ad.UserLeads,
		ad.CreatedAt, ad.UpdatedAt,
	).Scan(&ad.ID)
}

// GetAd loads one advertisement, taking a row lock inside a transaction.
func (r *AdRepository) GetAd(ctx context.Context, id int64) (*domain.Advertisement, error) {
	query := `SELECT ` + adColumns + ` FROM advertisements WHERE id = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	ad, err := scanAd(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: advertisement %d", port.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return ad, nil
}

// UpdateAd writes back every mutable field.
func (r *AdRepository) UpdateAd(ctx context.Context, ad *domain.Advertisement) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE advertisements SET
			status = $2, pause_reason = $3, start_date = $4, end_date = $5,
			daily_budget_cents = $6, clicks_today = $7, last_click_date = $8,
			user_clicks = $9, views = $10, clicks = $11, leads = $12,
			amount_spent_cents = $13, user_leads = $14, updated_at = $15
		WHERE id = $1`,
		ad.ID, ad.Status, ad.PauseReason,
		nullableTime(ad.StartDate), nullableTime(ad.EndDate),
		ad.DailyBudget, ad.ClicksToday, nullableTime(ad.LastClickDate),
		ad.UserClicks, ad.Views, ad.Clicks, ad.Leads,
		ad.AmountSpent, ad.UserLeads, ad.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: advertisement %d", port.ErrNotFound, ad.ID)
	}
	return nil
}

// DeleteAd removes the row. Hard delete, not a soft-cancel.
func (r *AdRepository) DeleteAd(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM advertisements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: advertisement %d", port.ErrNotFound, id)
	}
	return nil
}

// GetOrCreateWallet returns the dealer's wallet, inserting an empty one on
// first use. Inside a transaction the row is locked.
func (r *AdRepository) GetOrCreateWallet(ctx context.Context, dealerID int64) (*domain.Wallet, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO wallets (dealer_id, created_at, updated_at)
		VALUES ($1, now(), now())
		ON CONFLICT (dealer_id) DO NOTHING`, dealerID)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, dealer_id, total_balance_cents, reserve_balance_cents,
		       spent_balance_cents, created_at, updated_at
		FROM wallets WHERE dealer_id = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	var w domain.Wallet
	err = r.q.QueryRow(ctx, query, dealerID).Scan(
		&w.ID, &w.DealerID, &w.TotalBalance, &w.ReserveBalance,
		&w.SpentBalance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWallet writes back the three balances.
func (r *AdRepository) UpdateWallet(ctx context.Context, w *domain.Wallet) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE wallets SET
			total_balance_cents = $2, reserve_balance_cents = $3,
			spent_balance_cents = $4, updated_at = now()
		WHERE id = $1`,
		w.ID, w.TotalBalance, w.ReserveBalance, w.SpentBalance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: wallet %d", port.ErrNotFound, w.ID)
	}
	return nil
}

// AppendTransaction adds one line to the wallet's ledger.
func (r *AdRepository) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, occurred_at, title, amount_cents, tx_type)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		tx.ID, tx.WalletID, tx.OccurredAt, tx.Title, tx.Amount, tx.Type)
	return err
}

// ListTransactions returns the newest ledger lines first.
func (r *AdRepository) ListTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, wallet_id, occurred_at, title, amount_cents, tx_type
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2`, walletID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		var tx domain.Transaction
		err := row.Scan(&tx.ID, &tx.WalletID, &tx.OccurredAt, &tx.Title, &tx.Amount, &tx.Type)
		return tx, err
	})
}

// VehicleExists implements port.VehicleDirectory.
func (r *AdRepository) VehicleExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// ListDealerAds returns every ad owned by the dealer.
func (r *AdRepository) ListDealerAds(ctx context.Context, dealerID int64) ([]domain.Advertisement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+adColumns+` FROM advertisements WHERE dealer_id = $1 ORDER BY id`, dealerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Advertisement, error) {
		ad, err := scanAd(row)
		if err != nil {
			return domain.Advertisement{}, err
		}
		return *ad, nil
	})
}

// ListExpiredRunning returns ids of running ads whose end date is before
// today.
func (r *AdRepository) ListExpiredRunning(ctx context.Context, today time.Time) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM advertisements
		WHERE status = 'running' AND end_date IS NOT NULL AND end_date < $1::date`,
		today)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ListBudgetExceeded returns ids of running sponsored ads clicked today
// whose spend has reached the daily budget.
func (r *AdRepository) ListBudgetExceeded(ctx context.Context, today time.Time, costPerClick domain.Money) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM advertisements
		WHERE status = 'running' AND ad_type = 'sponsored'
		  AND last_click_date IS NOT NULL AND last_click_date::date = $1::date
		  AND clicks_today::bigint * $2 >= daily_budget_cents`,
		today, int64(costPerClick))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ListRolloverDue returns ids of sponsored ads with stale daily counters or
// a budget pause to lift.
func (r *AdRepository) ListRolloverDue(ctx context.Context, today time.Time) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM advertisements
		WHERE ad_type = 'sponsored'
		  AND ((last_click_date IS NOT NULL AND last_click_date::date < $1::date)
		       OR (status = 'stopped' AND pause_reason = 'budget'))`,
		today)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ListAds serves one page of the public listing along with totals and
// facet counts. The WHERE clause is assembled from the typed filter with
// positional arguments only.
func (r *AdRepository) ListAds(ctx context.Context, f domain.ListingFilter, p domain.Page) (*port.Listing, error) {
	where, args := buildListingWhere(f)

	listing := &port.Listing{Facets: port.Facets{
		Makes:         map[string]int64{},
		Models:        map[string]int64{},
		BodyTypes:     map[string]int64{},
		FuelTypes:     map[string]int64{},
		Transmissions: map[string]int64{},
		Colors:        map[string]int64{},
		Locations:     map[string]int64{},
		Years:         map[int]int64{},
	}}

	countQuery := `SELECT count(*) FROM advertisements a JOIN vehicles v ON v.id = a.vehicle_id ` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&listing.TotalMatches); err != nil {
		return nil, err
	}
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM vehicles`).Scan(&listing.TotalVehicles); err != nil {
		return nil, err
	}

	order := `a.created_at DESC`
	if f.Sort == domain.SortOldestFirst {
		order = `a.created_at ASC`
	}
	pageQuery := fmt.Sprintf(`
		SELECT a.%s,
		       v.id, v.dealer_id, v.make, v.model, v.year, v.price_cents, v.mileage,
		       v.body_type, v.fuel_type, v.transmission, v.color, v.location,
		       v.dealer_verified, v.created_at
		FROM advertisements a JOIN vehicles v ON v.id = a.vehicle_id
		%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		strings.Join(adCols, ", a."), where, order, len(args)+1, len(args)+2)
	pageArgs := append(append([]any{}, args...), p.Limit, p.Offset)
	rows, err := r.q.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.ListingItem, error) {
		var (
			item      port.ListingItem
			start     *time.Time
			end       *time.Time
			lastClick *time.Time
		)
		ad := &item.Ad
		v := &item.Vehicle
		err := row.Scan(
			&ad.ID, &ad.VehicleID, &ad.DealerID, &ad.Type, &ad.Status, &ad.PauseReason,
			&start, &end, &ad.DailyBudget, &ad.ClicksToday, &lastClick,
			&ad.UserClicks, &ad.Views, &ad.Clicks, &ad.Leads, &ad.AmountSpent, &ad.UserLeads,
			&ad.CreatedAt, &ad.UpdatedAt,
			&v.ID, &v.DealerID, &v.Make, &v.Model, &v.Year, &v.Price, &v.Mileage,
			&v.BodyType, &v.FuelType, &v.Transmission, &v.Color, &v.Location,
			&v.DealerVerified, &v.CreatedAt,
		)
		if start != nil {
			ad.StartDate = *start
		}
		if end != nil {
			ad.EndDate = *end
		}
		if lastClick != nil {
			ad.LastClickDate = *lastClick
		}
		return item, err
	})
	if err != nil {
		return nil, err
	}
	listing.Items = items

	if err := r.collectFacets(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// collectFacets counts running listings per distinct value of each
// filterable vehicle attribute.
func (r *AdRepository) collectFacets(ctx context.Context, listing *port.Listing) error {
	stringFacets := []struct {
		column string
		dest   map[string]int64
	}{
		{"make", listing.Facets.Makes},
		{"model", listing.Facets.Models},
		{"body_type", listing.Facets.BodyTypes},
		{"fuel_type", listing.Facets.FuelTypes},
		{"transmission", listing.Facets.Transmissions},
		{"color", listing.Facets.Colors},
		{"location", listing.Facets.Locations},
	}
	for _, facet := range stringFacets {
		rows, err := r.q.Query(ctx, fmt.Sprintf(`
			SELECT v.%s, count(*)
			FROM advertisements a JOIN vehicles v ON v.id = a.vehicle_id
			WHERE a.status = 'running'
			GROUP BY v.%s`, facet.column, facet.column))
		if err != nil {
			return err
		}
		for rows.Next() {
			var value string
			var count int64
			if err := rows.Scan(&value, &count); err != nil {
				rows.Close()
				return err
			}
			facet.dest[value] = count
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	rows, err := r.q.Query(ctx, `
		SELECT v.year, count(*)
		FROM advertisements a JOIN vehicles v ON v.id = a.vehicle_id
		WHERE a.status = 'running'
		GROUP BY v.year`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var year int
		var count int64
		if err := rows.Scan(&year, &count); err != nil {
			return err
		}
		listing.Facets.Years[year] = count
	}
	return rows.Err()
}

func buildListingWhere(f domain.ListingFilter) (string, []any) {
	conds := []string{`a.status = 'running'`}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.FeaturedOnly {
		conds = append(conds, `a.ad_type = 'featured'`)
	}
	if f.Location != "" {
		conds = append(conds, `lower(v.location) = lower(`+arg(f.Location)+`)`)
	}
	stringSets := []struct {
		column string
		values []string
	}{
		{"make", f.Makes},
		{"model", f.Models},
		{"body_type", f.BodyTypes},
		{"fuel_type", f.FuelTypes},
		{"transmission", f.Transmissions},
		{"color", f.Colors},
	}
	for _, set := range stringSets {
		if len(set.values) > 0 {
			lowered := make([]string, len(set.values))
			for i, v := range set.values {
				lowered[i] = strings.ToLower(v)
			}
			conds = append(conds, `lower(v.`+set.column+`) = ANY(`+arg(lowered)+`)`)
		}
	}
	if f.Price.Min != nil {
		conds = append(conds, `v.price_cents >= `+arg(int64(*f.Price.Min)))
	}
	if f.Price.Max != nil {
		conds = append(conds, `v.price_cents <= `+arg(int64(*f.Price.Max)))
	}
	if f.Year.Min != nil {
		conds = append(conds, `v.year >= `+arg(*f.Year.Min))
	}
	if f.Year.Max != nil {
		conds = append(conds, `v.year <= `+arg(*f.Year.Max))
	}
	if f.Mileage.Min != nil {
		conds = append(conds, `v.mileage >= `+arg(*f.Mileage.Min))
	}
	if f.Mileage.Max != nil {
		conds = append(conds, `v.mileage <= `+arg(*f.Mileage.Max))
	}
	if f.VerifiedDealer != nil {
		conds = append(conds, `v.dealer_verified = `+arg(*f.VerifiedDealer))
	}
	return `WHERE ` + strings.Join(conds, ` AND `), args
}
