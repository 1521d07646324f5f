package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seedListing(t *testing.T) *Repository {
	t.Helper()
	repo := New()
	ctx := context.Background()

	vehicles := []domain.Vehicle{
		{ID: 1, DealerID: 1, Make: "Toyota", Model: "Corolla", Year: 2020, Price: 1_500_000, Mileage: 40000, BodyType: "sedan", FuelType: "petrol", Transmission: "manual", Color: "blue", Location: "Austin", DealerVerified: true},
		{ID: 2, DealerID: 1, Make: "Toyota", Model: "RAV4", Year: 2022, Price: 2_800_000, Mileage: 12000, BodyType: "suv", FuelType: "hybrid", Transmission: "automatic", Color: "white", Location: "Austin", DealerVerified: true},
		{ID: 3, DealerID: 2, Make: "Honda", Model: "Civic", Year: 2018, Price: 1_200_000, Mileage: 80000, BodyType: "sedan", FuelType: "petrol", Transmission: "manual", Color: "red", Location: "Dallas", DealerVerified: false},
		{ID: 4, DealerID: 2, Make: "Ford", Model: "F-150", Year: 2021, Price: 3_500_000, Mileage: 25000, BodyType: "pickup", FuelType: "diesel", Transmission: "automatic", Color: "black", Location: "Dallas", DealerVerified: false},
	}
	for _, v := range vehicles {
		repo.PutVehicle(v)
	}

	ads := []domain.Advertisement{
		{VehicleID: 1, DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, CreatedAt: baseTime},
		{VehicleID: 2, DealerID: 1, Type: domain.AdTypeFeatured, Status: domain.AdStatusRunning, CreatedAt: baseTime.Add(time.Hour)},
		{VehicleID: 3, DealerID: 2, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, CreatedAt: baseTime.Add(2 * time.Hour)},
		// Stopped ads never appear in the public listing.
		{VehicleID: 4, DealerID: 2, Type: domain.AdTypeSponsored, Status: domain.AdStatusStopped, CreatedAt: baseTime.Add(3 * time.Hour)},
	}
	for i := range ads {
		require.NoError(t, repo.CreateAd(ctx, &ads[i]))
	}
	return repo
}

func TestListAdsUnfiltered(t *testing.T) {
	repo := seedListing(t)
	listing, err := repo.ListAds(context.Background(), domain.ListingFilter{}, domain.Page{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(3), listing.TotalMatches)
	assert.Equal(t, int64(4), listing.TotalVehicles)
	require.Len(t, listing.Items, 3)

	// Newest first by default.
	assert.Equal(t, int64(3), listing.Items[0].Ad.VehicleID)
	assert.Equal(t, int64(1), listing.Items[2].Ad.VehicleID)
}

func TestListAdsFilters(t *testing.T) {
	repo := seedListing(t)
	ctx := context.Background()

	priceMax := domain.Money(2_000_000)
	yearMin := 2019
	verified := true

	tests := []struct {
		name   string
		filter domain.ListingFilter
		want   []int64 // vehicle ids, newest first
	}{
		{"by make", domain.ListingFilter{Makes: []string{"toyota"}}, []int64{2, 1}},
		{"by location", domain.ListingFilter{Location: "dallas"}, []int64{3}},
		{"by body type", domain.ListingFilter{BodyTypes: []string{"sedan"}}, []int64{3, 1}},
		{"by price ceiling", domain.ListingFilter{Price: domain.MoneyRange{Max: &priceMax}}, []int64{3, 1}},
		{"by year floor", domain.ListingFilter{Year: domain.IntRange{Min: &yearMin}}, []int64{2, 1}},
		{"verified dealers only", domain.ListingFilter{VerifiedDealer: &verified}, []int64{2, 1}},
		{"featured only", domain.ListingFilter{FeaturedOnly: true}, []int64{2}},
		{"no match", domain.ListingFilter{Makes: []string{"Tesla"}}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			listing, err := repo.ListAds(ctx, tc.filter, domain.Page{Limit: 10})
			require.NoError(t, err)
			var got []int64
			for _, item := range listing.Items {
				got = append(got, item.Vehicle.ID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestListAdsPagination(t *testing.T) {
	repo := seedListing(t)
	ctx := context.Background()

	page1, err := repo.ListAds(ctx, domain.ListingFilter{}, domain.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	assert.Equal(t, int64(3), page1.TotalMatches)

	page2, err := repo.ListAds(ctx, domain.ListingFilter{}, domain.Page{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.NotEqual(t, page1.Items[0].Ad.ID, page2.Items[0].Ad.ID)

	empty, err := repo.ListAds(ctx, domain.ListingFilter{}, domain.Page{Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestListAdsFacets(t *testing.T) {
	repo := seedListing(t)

	// Facets cover the whole running set even when a filter narrows the page.
	listing, err := repo.ListAds(context.Background(), domain.ListingFilter{Makes: []string{"Honda"}}, domain.Page{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(2), listing.Facets.Makes["Toyota"])
	assert.Equal(t, int64(1), listing.Facets.Makes["Honda"])
	assert.NotContains(t, listing.Facets.Makes, "Ford", "stopped ads are excluded from facets")
	assert.Equal(t, int64(2), listing.Facets.Locations["Austin"])
	assert.Equal(t, int64(1), listing.Facets.Years[2020])
}

func TestListAdsSortOldest(t *testing.T) {
	repo := seedListing(t)
	listing, err := repo.ListAds(context.Background(),
		domain.ListingFilter{Sort: domain.SortOldestFirst}, domain.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listing.Items, 3)
	assert.Equal(t, int64(1), listing.Items[0].Ad.VehicleID)
	assert.Equal(t, int64(3), listing.Items[2].Ad.VehicleID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := New()
	ctx := context.Background()

	ad := domain.Advertisement{DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, DailyBudget: 500}
	require.NoError(t, repo.CreateAd(ctx, &ad))
	wallet, err := repo.GetOrCreateWallet(ctx, 1)
	require.NoError(t, err)
	wallet.TotalBalance = 1000
	require.NoError(t, repo.UpdateWallet(ctx, wallet))

	boom := errors.New("boom")
	err = repo.WithTx(ctx, func(ctx context.Context, tx port.AdRepository) error {
		w, err := tx.GetOrCreateWallet(ctx, 1)
		if err != nil {
			return err
		}
		w.TotalBalance = 0
		if err := tx.UpdateWallet(ctx, w); err != nil {
			return err
		}
		a, err := tx.GetAd(ctx, ad.ID)
		if err != nil {
			return err
		}
		a.Stop(domain.PauseSystem)
		if err := tx.UpdateAd(ctx, a); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := repo.GetOrCreateWallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(1000), w.TotalBalance, "wallet mutation rolled back")

	got, err := repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusRunning, got.Status, "ad mutation rolled back")
}

func TestWithTxCommits(t *testing.T) {
	repo := New()
	ctx := context.Background()

	ad := domain.Advertisement{DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning}
	require.NoError(t, repo.CreateAd(ctx, &ad))

	err := repo.WithTx(ctx, func(ctx context.Context, tx port.AdRepository) error {
		a, err := tx.GetAd(ctx, ad.ID)
		if err != nil {
			return err
		}
		a.Stop(domain.PauseUser)
		return tx.UpdateAd(ctx, a)
	})
	require.NoError(t, err)

	got, err := repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
}

func TestGetAdReturnsCopy(t *testing.T) {
	repo := New()
	ctx := context.Background()

	ad := domain.Advertisement{DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, UserClicks: []string{"u:1"}}
	require.NoError(t, repo.CreateAd(ctx, &ad))

	got, err := repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	got.UserClicks[0] = "mutated"
	got.Status = domain.AdStatusStopped

	again, err := repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, "u:1", again.UserClicks[0])
	assert.Equal(t, domain.AdStatusRunning, again.Status)
}

func TestListTransactionsNewestFirstWithLimit(t *testing.T) {
	repo := New()
	ctx := context.Background()

	w, err := repo.GetOrCreateWallet(ctx, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendTransaction(ctx, domain.Transaction{
			ID: string(rune('a' + i)), WalletID: w.ID,
			OccurredAt: baseTime.Add(time.Duration(i) * time.Minute),
			Amount:     domain.Money(i + 1), Type: domain.TxDebit,
		}))
	}

	txs, err := repo.ListTransactions(ctx, w.ID, 3)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "e", txs[0].ID)
	assert.Equal(t, "c", txs[2].ID)
}

func TestReconcilerScans(t *testing.T) {
	repo := New()
	ctx := context.Background()
	yesterday := baseTime.AddDate(0, 0, -1)

	expired := domain.Advertisement{DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, EndDate: yesterday, DailyBudget: 500}
	exhausted := domain.Advertisement{DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, EndDate: baseTime.AddDate(0, 0, 3), DailyBudget: 100, ClicksToday: 10, LastClickDate: baseTime}
	stale := domain.Advertisement{DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning, EndDate: baseTime.AddDate(0, 0, 3), DailyBudget: 500, ClicksToday: 3, LastClickDate: yesterday}
	for _, ad := range []*domain.Advertisement{&expired, &exhausted, &stale} {
		require.NoError(t, repo.CreateAd(ctx, ad))
	}

	ids, err := repo.ListExpiredRunning(ctx, baseTime)
	require.NoError(t, err)
	assert.Equal(t, []int64{expired.ID}, ids)

	ids, err = repo.ListBudgetExceeded(ctx, baseTime, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{exhausted.ID}, ids)

	ids, err = repo.ListRolloverDue(ctx, baseTime)
	require.NoError(t, err)
	assert.Equal(t, []int64{stale.ID}, ids)
}
