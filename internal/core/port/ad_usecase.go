package port

import (
	"context"
	"time"

	"motorlot-ads/internal/core/domain"
)

// AdUseCase defines the business operations exposed by the ad engine. This
// is the primary port into the application domain; the HTTP layer depends
// on it rather than on the concrete service.
type AdUseCase interface {
	// CreateCampaign reserves funds for sponsored campaigns and creates the
	// advertisement atomically. Featured campaigns skip the fund step.
	CreateCampaign(ctx context.Context, in CreateCampaignInput) (*domain.Advertisement, error)

	// RegisterClick records a click by the given viewer and charges the
	// per-click cost against the daily budget when applicable. The click
	// that would push today's spend past the budget stops the ad and is
	// itself not charged.
	RegisterClick(ctx context.Context, adID int64, viewer ViewerIdentity) (ClickResult, error)

	// RegisterLead records a lead, at most one per user per ad, ever.
	RegisterLead(ctx context.Context, adID int64, userID string) error

	// UpdateStatus applies a user-requested start/stop, with an optional
	// end-date change applied on either branch.
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*domain.Advertisement, error)

	// ExtendCampaign lengthens a sponsored campaign, reserving funds for
	// the added days.
	ExtendCampaign(ctx context.Context, in ExtendCampaignInput) (*domain.Advertisement, error)

	// DeleteCampaign hard-deletes an ad, refunding unspent reserved funds.
	DeleteCampaign(ctx context.Context, adID, callerDealerID int64) error

	// GetWallet returns the dealer's balances and recent transactions.
	GetWallet(ctx context.Context, dealerID int64) (*WalletView, error)

	// ListAds serves the public, running-only listing.
	ListAds(ctx context.Context, filter domain.ListingFilter, page domain.Page) (*Listing, error)

	// GetDealerStats aggregates clicks/leads/views across a dealer's ads.
	GetDealerStats(ctx context.Context, dealerID int64) (*DealerStats, error)
}

// ViewerIdentity identifies who clicked: the authenticated user id when
// present, otherwise a device identifier. At least one must be set.
type ViewerIdentity struct {
	UserID   string
	DeviceID string
}

// Key returns the canonical identity used for duplicate suppression.
func (v ViewerIdentity) Key() string {
	if v.UserID != "" {
		return "u:" + v.UserID
	}
	if v.DeviceID != "" {
		return "d:" + v.DeviceID
	}
	return ""
}

// CreateCampaignInput carries everything needed to open a campaign.
type CreateCampaignInput struct {
	VehicleID   int64
	DealerID    int64
	Type        domain.AdType
	StartDate   time.Time
	EndDate     time.Time
	DailyBudget domain.Money
}

// ClickResult reports what a click did.
type ClickResult struct {
	Charged bool
	Stopped bool
}

// UpdateStatusInput is a user-driven status change. NewEndDate, when
// non-nil, is applied regardless of which status branch is taken.
type UpdateStatusInput struct {
	AdID           int64
	CallerDealerID int64
	Status         domain.AdStatus
	NewEndDate     *time.Time
}

// ExtendCampaignInput lengthens a campaign window. NewStartDate is
// optional.
type ExtendCampaignInput struct {
	AdID           int64
	CallerDealerID int64
	NewEndDate     time.Time
	NewDailyBudget domain.Money
	NewStartDate   *time.Time
}

// WalletView is the read model for a dealer's wallet.
type WalletView struct {
	Wallet       domain.Wallet
	Transactions []domain.Transaction
}

// DealerStats aggregates performance across all of a dealer's ads.
// ConversionRate is leads/clicks as a percentage, zero when there are no
// clicks. Daily holds a trailing seven-day series, oldest first; each
// bucket is derived from ad rows whose updated_at falls on that date,
// which approximates but does not equal a true per-day event breakdown.
type DealerStats struct {
	Clicks         int64
	Leads          int64
	Views          int64
	ConversionRate float64
	Daily          []DailyStat
}

// DailyStat is one calendar-day bucket of the trailing series.
type DailyStat struct {
	Date           string
	Clicks         int64
	Leads          int64
	Views          int64
	ConversionRate float64
}
