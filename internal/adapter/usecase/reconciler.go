package usecase

import (
	"context"
	"log/slog"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

// Reconciler performs the background sweeps over the advertisement store:
// stopping ads whose campaign window has passed or whose daily spend has
// hit budget, and resetting daily counters at the day boundary. Every
// per-ad mutation runs in its own transaction and re-checks the condition
// under lock, so sweeps are idempotent and safe to run concurrently with
// live click traffic. A failing row is logged and skipped, never aborting
// the sweep.
type Reconciler struct {
	repo         port.AdRepository
	clock        port.Clock
	notifier     port.Notifier
	logger       *slog.Logger
	costPerClick domain.Money
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithSweepCostPerClick overrides the per-click cost the budget sweep
// evaluates against. It must match the cost the click path charges.
func WithSweepCostPerClick(m domain.Money) ReconcilerOption {
	return func(r *Reconciler) { r.costPerClick = m }
}

// NewReconciler wires a Reconciler. Pass nil notifier to disable events.
func NewReconciler(repo port.AdRepository, clock port.Clock, notifier port.Notifier, logger *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	if notifier == nil {
		notifier = port.NopNotifier{}
	}
	r := &Reconciler{
		repo:         repo,
		clock:        clock,
		notifier:     notifier,
		logger:       logger,
		costPerClick: domain.DefaultCostPerClick,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sweep runs the expiry and budget sweeps. Intended for an hourly timer.
func (r *Reconciler) Sweep(ctx context.Context) {
	expired, err := r.SweepExpired(ctx)
	if err != nil {
		r.logger.Error("expiry sweep failed", slog.Any("error", err))
	}
	exhausted, err := r.SweepBudget(ctx)
	if err != nil {
		r.logger.Error("budget sweep failed", slog.Any("error", err))
	}
	if expired > 0 || exhausted > 0 {
		r.logger.Info("sweep finished",
			slog.Int("expired", expired),
			slog.Int("budget_exhausted", exhausted))
	}
}

// SweepExpired stops running ads whose end date has passed. Returns the
// number of ads stopped.
func (r *Reconciler) SweepExpired(ctx context.Context) (int, error) {
	now := r.clock.Now()
	ids, err := r.repo.ListExpiredRunning(ctx, now)
	if err != nil {
		return 0, port.WrapStorage("expiry scan", err)
	}
	stopped := 0
	for _, id := range ids {
		err := r.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
			ad, err := repo.GetAd(ctx, id)
			if err != nil {
				return err
			}
			if ad.Status != domain.AdStatusRunning || !ad.Expired(now) {
				return nil
			}
			ad.Stop(domain.PauseSystem)
			ad.UpdatedAt = now
			if err = repo.UpdateAd(ctx, ad); err != nil {
				return err
			}
			stopped++
			return nil
		})
		if err != nil {
			r.logger.Error("expiry sweep: ad skipped",
				slog.Int64("ad_id", id), slog.Any("error", err))
			continue
		}
	}
	return stopped, nil
}

// SweepBudget stops running sponsored ads whose spend today has reached the
// daily budget. Returns the number of ads stopped.
func (r *Reconciler) SweepBudget(ctx context.Context) (int, error) {
	now := r.clock.Now()
	ids, err := r.repo.ListBudgetExceeded(ctx, now, r.costPerClick)
	if err != nil {
		return 0, port.WrapStorage("budget scan", err)
	}
	stopped := 0
	for _, id := range ids {
		err := r.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
			ad, err := repo.GetAd(ctx, id)
			if err != nil {
				return err
			}
			if ad.Status != domain.AdStatusRunning || !ad.Sponsored() {
				return nil
			}
			if !domain.SameDay(ad.LastClickDate, now) || !ad.BudgetExhausted(r.costPerClick) {
				return nil
			}
			ad.Stop(domain.PauseBudget)
			ad.UpdatedAt = now
			if err = repo.UpdateAd(ctx, ad); err != nil {
				return err
			}
			stopped++
			r.notifier.Notify(ctx, port.Event{
				Kind:     port.EventBudgetExhausted,
				AdID:     ad.ID,
				DealerID: ad.DealerID,
				Reason:   domain.PauseBudget,
			})
			return nil
		})
		if err != nil {
			r.logger.Error("budget sweep: ad skipped",
				slog.Int64("ad_id", id), slog.Any("error", err))
			continue
		}
	}
	return stopped, nil
}

// RollOverDaily resets daily click counters for sponsored ads last clicked
// on a previous day and resumes ads that were stopped for budget, provided
// their campaign window has not passed. Intended to run once at local
// midnight. Returns the number of ads touched.
func (r *Reconciler) RollOverDaily(ctx context.Context) (int, error) {
	now := r.clock.Now()
	ids, err := r.repo.ListRolloverDue(ctx, now)
	if err != nil {
		return 0, port.WrapStorage("rollover scan", err)
	}
	touched := 0
	for _, id := range ids {
		err := r.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
			ad, err := repo.GetAd(ctx, id)
			if err != nil {
				return err
			}
			if !ad.Sponsored() {
				return nil
			}
			changed := false
			stale := !ad.LastClickDate.IsZero() && !domain.SameDay(ad.LastClickDate, now)
			if stale && (ad.ClicksToday != 0 || len(ad.UserClicks) > 0) {
				ad.ClicksToday = 0
				ad.UserClicks = nil
				changed = true
			}
			if ad.Status == domain.AdStatusStopped && ad.PauseReason == domain.PauseBudget && !ad.Expired(now) {
				ad.Resume()
				changed = true
			}
			if !changed {
				return nil
			}
			ad.UpdatedAt = now
			if err = repo.UpdateAd(ctx, ad); err != nil {
				return err
			}
			touched++
			return nil
		})
		if err != nil {
			r.logger.Error("rollover: ad skipped",
				slog.Int64("ad_id", id), slog.Any("error", err))
			continue
		}
	}
	return touched, nil
}

// RollOver is the timer entrypoint for the daily task.
func (r *Reconciler) RollOver(ctx context.Context) {
	touched, err := r.RollOverDaily(ctx)
	if err != nil {
		r.logger.Error("daily rollover failed", slog.Any("error", err))
		return
	}
	if touched > 0 {
		r.logger.Info("daily rollover finished", slog.Int("ads", touched))
	}
}
