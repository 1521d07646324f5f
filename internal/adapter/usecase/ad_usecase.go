package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

// AdService implements port.AdUseCase: campaign creation with fund
// reservation, per-click billing with daily-budget enforcement, leads,
// status transitions, extension and deletion with refund.
type AdService struct {
	repo     port.AdRepository
	vehicles port.VehicleDirectory
	notifier port.Notifier
	clock    port.Clock

	// costPerClick is the flat charge for one billable click.
	costPerClick domain.Money

	// stopOnReserveShortage controls what happens when a click is
	// affordable within the daily budget but the wallet reserve cannot
	// cover it: false rejects just that click and leaves the ad running,
	// true stops the ad as budget-exhausted.
	stopOnReserveShortage bool
}

// Option configures an AdService.
type Option func(*AdService)

// WithClock injects a clock, used by tests to drive day rollover.
func WithClock(c port.Clock) Option {
	return func(s *AdService) { s.clock = c }
}

// WithNotifier injects a lifecycle event sink.
func WithNotifier(n port.Notifier) Option {
	return func(s *AdService) { s.notifier = n }
}

// WithCostPerClick overrides the per-click charge.
func WithCostPerClick(m domain.Money) Option {
	return func(s *AdService) { s.costPerClick = m }
}

// WithStopOnReserveShortage makes a reserve shortfall stop the ad instead
// of rejecting the single click.
func WithStopOnReserveShortage(stop bool) Option {
	return func(s *AdService) { s.stopOnReserveShortage = stop }
}

// NewAdService creates the service with the provided repository and
// vehicle directory.
func NewAdService(repo port.AdRepository, vehicles port.VehicleDirectory, opts ...Option) *AdService {
	s := &AdService{
		repo:         repo,
		vehicles:     vehicles,
		notifier:     port.NopNotifier{},
		clock:        port.SystemClock{},
		costPerClick: domain.DefaultCostPerClick,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCampaign validates the request, reserves funds for sponsored
// campaigns and creates the advertisement. Reservation and creation happen
// in one transaction, all-or-nothing.
func (s *AdService) CreateCampaign(ctx context.Context, in port.CreateCampaignInput) (*domain.Advertisement, error) {
	if in.DealerID <= 0 || in.VehicleID <= 0 {
		return nil, fmt.Errorf("%w: dealer and vehicle ids are required", port.ErrValidation)
	}
	if in.Type != domain.AdTypeFeatured && in.Type != domain.AdTypeSponsored {
		return nil, fmt.Errorf("%w: unknown ad type %q", port.ErrValidation, in.Type)
	}
	if in.Type == domain.AdTypeSponsored {
		if in.DailyBudget <= 0 {
			return nil, fmt.Errorf("%w: daily budget must be positive", port.ErrValidation)
		}
		if in.EndDate.Before(in.StartDate) {
			return nil, fmt.Errorf("%w: end date before start date", port.ErrValidation)
		}
	}
	exists, err := s.vehicles.VehicleExists(ctx, in.VehicleID)
	if err != nil {
		return nil, port.WrapStorage("vehicle lookup", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: vehicle %d", port.ErrNotFound, in.VehicleID)
	}

	now := s.clock.Now()
	ad := &domain.Advertisement{
		VehicleID:   in.VehicleID,
		DealerID:    in.DealerID,
		Type:        in.Type,
		Status:      domain.AdStatusRunning,
		PauseReason: domain.PauseNone,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		DailyBudget: in.DailyBudget,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
		if in.Type == domain.AdTypeSponsored {
			days := domain.CampaignDays(in.StartDate, in.EndDate)
			required := in.DailyBudget.MulDays(days)
			wallet, err := repo.GetOrCreateWallet(ctx, in.DealerID)
			if err != nil {
				return err
			}
			if wallet.Available() < required {
				return &port.InsufficientFundsError{
					Required:     required,
					Available:    wallet.Available(),
					CampaignDays: days,
				}
			}
			if err = wallet.Reserve(required); err != nil {
				return err
			}
			if err = repo.UpdateWallet(ctx, wallet); err != nil {
				return err
			}
			tx := domain.Transaction{
				ID:         uuid.NewString(),
				WalletID:   wallet.ID,
				OccurredAt: now,
				Title:      fmt.Sprintf("Reserved for %d-day campaign on vehicle %d", days, in.VehicleID),
				Amount:     required,
				Type:       domain.TxReserve,
			}
			if err = repo.AppendTransaction(ctx, tx); err != nil {
				return err
			}
		}
		return repo.CreateAd(ctx, ad)
	})
	if err != nil {
		return nil, port.WrapStorage("create campaign", err)
	}
	s.notifier.Notify(ctx, port.Event{Kind: port.EventCampaignCreated, AdID: ad.ID, DealerID: ad.DealerID})
	return ad, nil
}

// RegisterClick records a click and charges it when the daily budget and
// viewer deduplication allow. Lifetime view/click counters are incremented
// exactly once per call, charged or not.
func (s *AdService) RegisterClick(ctx context.Context, adID int64, viewer port.ViewerIdentity) (port.ClickResult, error) {
	key := viewer.Key()
	if key == "" {
		return port.ClickResult{}, fmt.Errorf("%w: viewer identity is required", port.ErrValidation)
	}
	now := s.clock.Now()

	var (
		result   port.ClickResult
		clickErr error
		stopped  *domain.Advertisement
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
		ad, err := repo.GetAd(ctx, adID)
		if err != nil {
			return err
		}
		ad.Views++
		ad.Clicks++
		ad.UpdatedAt = now

		if !ad.Sponsored() {
			return repo.UpdateAd(ctx, ad)
		}

		ad.RollOverDay(now)

		potential := domain.Money(ad.ClicksToday+1) * s.costPerClick
		if potential > ad.DailyBudget {
			// The click that would exceed the budget is itself not charged.
			ad.Stop(domain.PauseBudget)
			result.Stopped = true
			stopped = ad
			return repo.UpdateAd(ctx, ad)
		}

		if ad.ClickedBy(key) {
			return repo.UpdateAd(ctx, ad)
		}

		wallet, err := repo.GetOrCreateWallet(ctx, ad.DealerID)
		if err != nil {
			return err
		}
		if wallet.ReserveBalance < s.costPerClick {
			if s.stopOnReserveShortage {
				ad.Stop(domain.PauseBudget)
				result.Stopped = true
				stopped = ad
			} else {
				clickErr = port.ErrInsufficientReservedFunds
			}
			return repo.UpdateAd(ctx, ad)
		}

		if err = wallet.Debit(s.costPerClick); err != nil {
			return err
		}
		ad.AmountSpent += s.costPerClick
		ad.ClicksToday++
		ad.LastClickDate = now
		ad.UserClicks = append(ad.UserClicks, key)
		result.Charged = true

		if err = repo.UpdateWallet(ctx, wallet); err != nil {
			return err
		}
		tx := domain.Transaction{
			ID:         uuid.NewString(),
			WalletID:   wallet.ID,
			OccurredAt: now,
			Title:      fmt.Sprintf("Click charge on ad %d", ad.ID),
			Amount:     s.costPerClick,
			Type:       domain.TxDebit,
		}
		if err = repo.AppendTransaction(ctx, tx); err != nil {
			return err
		}
		return repo.UpdateAd(ctx, ad)
	})
	if err != nil {
		return port.ClickResult{}, port.WrapStorage("register click", err)
	}
	if stopped != nil {
		s.notifier.Notify(ctx, port.Event{
			Kind:     port.EventBudgetExhausted,
			AdID:     stopped.ID,
			DealerID: stopped.DealerID,
			Reason:   domain.PauseBudget,
		})
	}
	return result, clickErr
}

// RegisterLead records a lead for the user, rejecting duplicates: a user
// counts as a lead at most once per ad, ever.
func (s *AdService) RegisterLead(ctx context.Context, adID int64, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", port.ErrValidation)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
		ad, err := repo.GetAd(ctx, adID)
		if err != nil {
			return err
		}
		if ad.LeadBy(userID) {
			return port.ErrDuplicateLead
		}
		ad.UserLeads = append(ad.UserLeads, userID)
		ad.Leads++
		ad.UpdatedAt = s.clock.Now()
		return repo.UpdateAd(ctx, ad)
	})
	return port.WrapStorage("register lead", err)
}

// UpdateStatus applies a user-requested stop or resume. A stop always
// succeeds; a resume is refused for expired or budget-exhausted campaigns.
// An optional end-date change is applied on either branch.
func (s *AdService) UpdateStatus(ctx context.Context, in port.UpdateStatusInput) (*domain.Advertisement, error) {
	if in.Status != domain.AdStatusRunning && in.Status != domain.AdStatusStopped {
		return nil, fmt.Errorf("%w: unknown status %q", port.ErrValidation, in.Status)
	}
	now := s.clock.Now()
	var out *domain.Advertisement
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
		ad, err := repo.GetAd(ctx, in.AdID)
		if err != nil {
			return err
		}
		if ad.DealerID != in.CallerDealerID {
			return port.ErrUnauthorized
		}
		if in.NewEndDate != nil {
			ad.EndDate = *in.NewEndDate
		}
		switch in.Status {
		case domain.AdStatusStopped:
			ad.Stop(domain.PauseUser)
		case domain.AdStatusRunning:
			if ad.Sponsored() {
				if ad.Expired(now) {
					return port.ErrCampaignExpired
				}
				if ad.BudgetExhausted(s.costPerClick) {
					return port.ErrBudgetExhausted
				}
			}
			ad.Resume()
		}
		ad.UpdatedAt = now
		out = ad
		return repo.UpdateAd(ctx, ad)
	})
	if err != nil {
		return nil, port.WrapStorage("update status", err)
	}
	if out.Status == domain.AdStatusStopped {
		s.notifier.Notify(ctx, port.Event{
			Kind:     port.EventCampaignStopped,
			AdID:     out.ID,
			DealerID: out.DealerID,
			Reason:   domain.PauseUser,
		})
	}
	return out, nil
}

// ExtendCampaign lengthens a sponsored campaign, reserving funds for the
// additional days under the new daily budget. Non-sponsored ads are left
// untouched.
func (s *AdService) ExtendCampaign(ctx context.Context, in port.ExtendCampaignInput) (*domain.Advertisement, error) {
	now := s.clock.Now()
	var out *domain.Advertisement
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
		ad, err := repo.GetAd(ctx, in.AdID)
		if err != nil {
			return err
		}
		if ad.DealerID != in.CallerDealerID {
			return port.ErrUnauthorized
		}
		out = ad
		if !ad.Sponsored() {
			return nil
		}
		if !in.NewEndDate.After(ad.EndDate) {
			return port.ErrInvalidExtension
		}
		if in.NewDailyBudget <= 0 {
			return fmt.Errorf("%w: daily budget must be positive", port.ErrValidation)
		}

		days := domain.DaysBetween(ad.EndDate, in.NewEndDate)
		required := in.NewDailyBudget.MulDays(days)
		wallet, err := repo.GetOrCreateWallet(ctx, ad.DealerID)
		if err != nil {
			return err
		}
		if wallet.Available() < required {
			return &port.InsufficientFundsError{
				Required:     required,
				Available:    wallet.Available(),
				CampaignDays: days,
			}
		}
		if err = wallet.Reserve(required); err != nil {
			return err
		}
		if err = repo.UpdateWallet(ctx, wallet); err != nil {
			return err
		}
		tx := domain.Transaction{
			ID:         uuid.NewString(),
			WalletID:   wallet.ID,
			OccurredAt: now,
			Title:      fmt.Sprintf("Reserved for %d-day extension of ad %d", days, ad.ID),
			Amount:     required,
			Type:       domain.TxReserve,
		}
		if err = repo.AppendTransaction(ctx, tx); err != nil {
			return err
		}

		ad.EndDate = in.NewEndDate
		ad.DailyBudget = in.NewDailyBudget
		if in.NewStartDate != nil {
			ad.StartDate = *in.NewStartDate
		}
		ad.UpdatedAt = now
		return repo.UpdateAd(ctx, ad)
	})
	if err != nil {
		return nil, port.WrapStorage("extend campaign", err)
	}
	return out, nil
}

// DeleteCampaign hard-deletes an ad. For sponsored ads the unspent part of
// the original reservation is released back to the available balance,
// floored at the wallet's current reserve.
func (s *AdService) DeleteCampaign(ctx context.Context, adID, callerDealerID int64) error {
	now := s.clock.Now()
	var deleted *domain.Advertisement
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo port.AdRepository) error {
		ad, err := repo.GetAd(ctx, adID)
		if err != nil {
			return err
		}
		if ad.DealerID != callerDealerID {
			return port.ErrUnauthorized
		}
		if ad.Sponsored() {
			days := domain.CampaignDays(ad.StartDate, ad.EndDate)
			refund := ad.DailyBudget.MulDays(days) - ad.AmountSpent
			if refund > 0 {
				wallet, err := repo.GetOrCreateWallet(ctx, ad.DealerID)
				if err != nil {
					return err
				}
				released := wallet.Release(refund)
				if released > 0 {
					if err = repo.UpdateWallet(ctx, wallet); err != nil {
						return err
					}
					tx := domain.Transaction{
						ID:         uuid.NewString(),
						WalletID:   wallet.ID,
						OccurredAt: now,
						Title:      fmt.Sprintf("Refund of unspent reservation for ad %d", ad.ID),
						Amount:     released,
						Type:       domain.TxCredit,
					}
					if err = repo.AppendTransaction(ctx, tx); err != nil {
						return err
					}
				}
			}
		}
		deleted = ad
		return repo.DeleteAd(ctx, ad.ID)
	})
	if err != nil {
		return port.WrapStorage("delete campaign", err)
	}
	s.notifier.Notify(ctx, port.Event{Kind: port.EventCampaignDeleted, AdID: deleted.ID, DealerID: deleted.DealerID})
	return nil
}

// GetWallet returns the dealer's balances and the most recent transactions.
func (s *AdService) GetWallet(ctx context.Context, dealerID int64) (*port.WalletView, error) {
	wallet, err := s.repo.GetOrCreateWallet(ctx, dealerID)
	if err != nil {
		return nil, port.WrapStorage("get wallet", err)
	}
	txs, err := s.repo.ListTransactions(ctx, wallet.ID, 50)
	if err != nil {
		return nil, port.WrapStorage("get wallet", err)
	}
	return &port.WalletView{Wallet: *wallet, Transactions: txs}, nil
}
