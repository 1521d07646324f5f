package usecase

import (
	"context"
	"fmt"

	"motorlot-ads/internal/core/domain"
	"motorlot-ads/internal/core/port"
)

const trailingStatsDays = 7

// ListAds validates the filter and serves one page of the public listing.
// Public listings are always scoped to running ads; featured-only is a
// filter variant.
func (s *AdService) ListAds(ctx context.Context, filter domain.ListingFilter, page domain.Page) (*port.Listing, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrValidation, err)
	}
	if page.Limit <= 0 {
		page.Limit = 20
	}
	if page.Limit > 100 {
		page.Limit = 100
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	listing, err := s.repo.ListAds(ctx, filter, page)
	if err != nil {
		return nil, port.WrapStorage("list ads", err)
	}
	return listing, nil
}

// GetDealerStats sums lifetime clicks, leads and views across the dealer's
// ads and builds a trailing seven-day series keyed by calendar date.
//
// The per-day buckets are derived from each ad row's updated_at, so an ad
// touched several times in one day contributes only its latest snapshot to
// that day's bucket. This is an approximation, not a true event series; an
// event log would be needed for exact daily analytics.
func (s *AdService) GetDealerStats(ctx context.Context, dealerID int64) (*port.DealerStats, error) {
	if dealerID <= 0 {
		return nil, fmt.Errorf("%w: dealer id is required", port.ErrValidation)
	}
	ads, err := s.repo.ListDealerAds(ctx, dealerID)
	if err != nil {
		return nil, port.WrapStorage("dealer stats", err)
	}

	stats := &port.DealerStats{}
	for _, ad := range ads {
		stats.Clicks += ad.Clicks
		stats.Leads += ad.Leads
		stats.Views += ad.Views
	}
	stats.ConversionRate = conversionRate(stats.Leads, stats.Clicks)

	now := s.clock.Now()
	stats.Daily = make([]port.DailyStat, 0, trailingStatsDays)
	for offset := trailingStatsDays - 1; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset)
		bucket := port.DailyStat{Date: day.Format("2006-01-02")}
		for _, ad := range ads {
			if !domain.SameDay(ad.UpdatedAt, day) {
				continue
			}
			bucket.Clicks += ad.Clicks
			bucket.Leads += ad.Leads
			bucket.Views += ad.Views
		}
		bucket.ConversionRate = conversionRate(bucket.Leads, bucket.Clicks)
		stats.Daily = append(stats.Daily, bucket)
	}
	return stats, nil
}

// conversionRate is leads per click as a percentage, zero when there are
// no clicks.
func conversionRate(leads, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return float64(leads) / float64(clicks) * 100
}
