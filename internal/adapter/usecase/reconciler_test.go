package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorlot-ads/internal/adapter/memory"
	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []port.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e port.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) kinds() []port.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]port.EventKind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedAd(t *testing.T, repo *memory.Repository, ad domain.Advertisement) int64 {
	t.Helper()
	require.NoError(t, repo.CreateAd(context.Background(), &ad))
	return ad.ID
}

func TestSweepExpired(t *testing.T) {
	repo := memory.New()
	clk := &stubClock{now: day0}
	rec := NewReconciler(repo, clk, nil, discardLogger())
	ctx := context.Background()

	expiredID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: day0.AddDate(0, 0, -5), EndDate: day0.AddDate(0, 0, -1), DailyBudget: 1000,
	})
	activeID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: day0, EndDate: day0.AddDate(0, 0, 3), DailyBudget: 1000,
	})
	// Featured ad without an end date never expires.
	openEndedID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeFeatured, Status: domain.AdStatusRunning,
	})

	stopped, err := rec.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stopped)

	got, err := repo.GetAd(ctx, expiredID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
	assert.Equal(t, domain.PauseSystem, got.PauseReason)

	for _, id := range []int64{activeID, openEndedID} {
		got, err = repo.GetAd(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.AdStatusRunning, got.Status)
	}

	// Second pass finds nothing left to stop.
	stopped, err = rec.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, stopped)
}

func TestSweepExpiredEndDateInclusive(t *testing.T) {
	repo := memory.New()
	clk := &stubClock{now: day0}
	rec := NewReconciler(repo, clk, nil, discardLogger())

	id := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: day0.AddDate(0, 0, -2), EndDate: day0, DailyBudget: 1000,
	})

	stopped, err := rec.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stopped, "the end date itself is still inside the window")

	clk.Advance(24 * time.Hour)
	stopped, err = rec.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stopped)

	got, err := repo.GetAd(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
}

func TestSweepBudget(t *testing.T) {
	repo := memory.New()
	clk := &stubClock{now: day0}
	notifier := &recordingNotifier{}
	rec := NewReconciler(repo, clk, notifier, discardLogger())
	ctx := context.Background()

	// 50 clicks at the default $0.10 against a $5.00 budget: exhausted.
	exhaustedID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: day0, EndDate: day0.AddDate(0, 0, 3), DailyBudget: 500,
		ClicksToday: 50, LastClickDate: day0,
	})
	underBudgetID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: day0, EndDate: day0.AddDate(0, 0, 3), DailyBudget: 500,
		ClicksToday: 10, LastClickDate: day0,
	})
	// Exhausted yesterday but untouched today: rollover's job, not the sweep's.
	staleID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: day0.AddDate(0, 0, -1), EndDate: day0.AddDate(0, 0, 3), DailyBudget: 500,
		ClicksToday: 50, LastClickDate: day0.AddDate(0, 0, -1),
	})

	stopped, err := rec.SweepBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stopped)

	got, err := repo.GetAd(ctx, exhaustedID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
	assert.Equal(t, domain.PauseBudget, got.PauseReason)

	for _, id := range []int64{underBudgetID, staleID} {
		got, err = repo.GetAd(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.AdStatusRunning, got.Status)
	}

	assert.Equal(t, []port.EventKind{port.EventBudgetExhausted}, notifier.kinds())
}

func TestSweepBudgetNonDefaultCost(t *testing.T) {
	repo := memory.New()
	repo.PutVehicle(domain.Vehicle{ID: 1, DealerID: 1, Make: "Honda", Model: "Civic"})
	clk := &stubClock{now: day0}
	svc := NewAdService(repo, repo, WithClock(clk), WithCostPerClick(20))
	rec := NewReconciler(repo, clk, nil, discardLogger(), WithSweepCostPerClick(20))
	ctx := context.Background()

	fundWallet(t, repo, 1, 10000)
	// $1.00/day at $0.20 per click: five charged clicks spend the whole budget.
	ad, err := svc.CreateCampaign(ctx, sponsoredInput(3, 100))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		res, err := svc.RegisterClick(ctx, ad.ID, port.ViewerIdentity{DeviceID: fmt.Sprintf("d%d", i)})
		require.NoError(t, err)
		require.True(t, res.Charged)
	}
	got, err := repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Money(100), got.AmountSpent)
	require.Equal(t, domain.AdStatusRunning, got.Status)

	stopped, err := rec.SweepBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stopped)

	got, err = repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
	assert.Equal(t, domain.PauseBudget, got.PauseReason)
}

func TestRollOverDaily(t *testing.T) {
	repo := memory.New()
	clk := &stubClock{now: day0}
	rec := NewReconciler(repo, clk, nil, discardLogger())
	ctx := context.Background()

	yesterday := day0.AddDate(0, 0, -1)

	staleID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusRunning,
		StartDate: yesterday, EndDate: day0.AddDate(0, 0, 3), DailyBudget: 500,
		ClicksToday: 12, LastClickDate: yesterday, UserClicks: []string{"u:a", "u:b"},
	})
	budgetPausedID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusStopped,
		PauseReason: domain.PauseBudget,
		StartDate:   yesterday, EndDate: day0.AddDate(0, 0, 3), DailyBudget: 500,
		ClicksToday: 50, LastClickDate: yesterday,
	})
	// Budget-paused and expired: counters reset but the ad stays down.
	expiredPausedID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusStopped,
		PauseReason: domain.PauseBudget,
		StartDate:   day0.AddDate(0, 0, -5), EndDate: yesterday, DailyBudget: 500,
		ClicksToday: 50, LastClickDate: yesterday,
	})
	userPausedID := seedAd(t, repo, domain.Advertisement{
		DealerID: 1, Type: domain.AdTypeSponsored, Status: domain.AdStatusStopped,
		PauseReason: domain.PauseUser,
		StartDate:   yesterday, EndDate: day0.AddDate(0, 0, 3), DailyBudget: 500,
	})

	touched, err := rec.RollOverDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, touched)

	got, err := repo.GetAd(ctx, staleID)
	require.NoError(t, err)
	assert.Zero(t, got.ClicksToday)
	assert.Empty(t, got.UserClicks)
	assert.Equal(t, domain.AdStatusRunning, got.Status)

	got, err = repo.GetAd(ctx, budgetPausedID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusRunning, got.Status)
	assert.Equal(t, domain.PauseNone, got.PauseReason)
	assert.Zero(t, got.ClicksToday)

	got, err = repo.GetAd(ctx, expiredPausedID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
	assert.Equal(t, domain.PauseBudget, got.PauseReason)
	assert.Zero(t, got.ClicksToday)

	got, err = repo.GetAd(ctx, userPausedID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusStopped, got.Status)
	assert.Equal(t, domain.PauseUser, got.PauseReason)

	// Running it again is a no-op.
	touched, err = rec.RollOverDaily(ctx)
	require.NoError(t, err)
	assert.Zero(t, touched)
}

func TestRollOverThenClickStartsFreshWindow(t *testing.T) {
	repo := memory.New()
	repo.PutVehicle(domain.Vehicle{ID: 1, DealerID: 1, Make: "Honda", Model: "Civic"})
	clk := &stubClock{now: day0}
	svc := NewAdService(repo, repo, WithClock(clk))
	rec := NewReconciler(repo, clk, nil, discardLogger())
	ctx := context.Background()

	fundWallet(t, repo, 1, 10000)
	// $0.30/day: three affordable clicks, the fourth stops the ad.
	ad, err := svc.CreateCampaign(ctx, sponsoredInput(3, 30))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = svc.RegisterClick(ctx, ad.ID, port.ViewerIdentity{DeviceID: string(rune('a' + i))})
		require.NoError(t, err)
	}
	got, err := repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AdStatusStopped, got.Status)
	require.Equal(t, domain.PauseBudget, got.PauseReason)

	clk.Advance(24 * time.Hour)
	touched, err := rec.RollOverDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	res, err := svc.RegisterClick(ctx, ad.ID, port.ViewerIdentity{DeviceID: "a"})
	require.NoError(t, err)
	assert.True(t, res.Charged, "yesterday's viewers and counters are forgotten")

	got, err = repo.GetAd(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusRunning, got.Status)
	assert.Equal(t, 1, got.ClicksToday)
}
