package domain

import (
	"slices"
	"time"
)

// AdType distinguishes billing models. Featured placements are flat-fee and
// never touch the budget engine; sponsored placements bill per click against
// a daily budget funded from a wallet reservation.
type AdType string

const (
	AdTypeFeatured  AdType = "featured"
	AdTypeSponsored AdType = "sponsored"
)

// AdStatus is the two-state campaign machine.
type AdStatus string

const (
	AdStatusRunning AdStatus = "running"
	AdStatusStopped AdStatus = "stopped"
)

// PauseReason explains why a campaign is stopped.
type PauseReason string

const (
	PauseNone   PauseReason = "none"
	PauseUser   PauseReason = "user"
	PauseBudget PauseReason = "budget"
	PauseSystem PauseReason = "system"
)

// Advertisement is one campaign for one vehicle. Daily counters
// (ClicksToday, UserClicks, LastClickDate) are scoped to the current
// calendar day and reset on rollover; Views, Clicks, Leads and AmountSpent
// are lifetime counters.
type Advertisement struct {
	ID          int64
	VehicleID   int64
	DealerID    int64
	Type        AdType
	Status      AdStatus
	PauseReason PauseReason

	StartDate   time.Time
	EndDate     time.Time
	DailyBudget Money

	ClicksToday   int
	LastClickDate time.Time
	UserClicks    []string

	Views       int64
	Clicks      int64
	Leads       int64
	AmountSpent Money
	UserLeads   []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CampaignDays is the inclusive day count of a campaign window: a campaign
// starting and ending on the same day runs for one day.
func CampaignDays(start, end time.Time) int {
	s := dateOf(start)
	e := dateOf(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// DaysBetween counts calendar days from one date to a later date, rounding
// any partial day up.
func DaysBetween(from, to time.Time) int {
	d := dateOf(to.In(from.Location())).Sub(dateOf(from))
	days := int(d.Hours() / 24)
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar date in
// the location of the second argument.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Sponsored reports whether the ad participates in click billing.
func (a *Advertisement) Sponsored() bool {
	return a.Type == AdTypeSponsored
}

// Expired reports whether the campaign window has passed as of now.
// The end date itself is still inside the window; ads without an end
// date never expire.
func (a *Advertisement) Expired(now time.Time) bool {
	if a.EndDate.IsZero() {
		return false
	}
	return dateOf(a.EndDate).Before(dateOf(now.In(a.EndDate.Location())))
}

// RollOverDay resets the daily counters when now falls on a later calendar
// day than the last recorded click. Returns true when a reset happened.
func (a *Advertisement) RollOverDay(now time.Time) bool {
	if a.LastClickDate.IsZero() || SameDay(a.LastClickDate, now) {
		return false
	}
	a.ClicksToday = 0
	a.UserClicks = nil
	a.LastClickDate = now
	return true
}

// ClickedBy reports whether the viewer has already been charged today.
func (a *Advertisement) ClickedBy(viewer string) bool {
	return slices.Contains(a.UserClicks, viewer)
}

// LeadBy reports whether the user has ever registered a lead on this ad.
func (a *Advertisement) LeadBy(userID string) bool {
	return slices.Contains(a.UserLeads, userID)
}

// BudgetExhausted reports whether today's spend has reached the daily cap
// at the given per-click cost.
func (a *Advertisement) BudgetExhausted(costPerClick Money) bool {
	return Money(a.ClicksToday)*costPerClick >= a.DailyBudget
}

// Stop transitions the ad to stopped with the given reason. Idempotent.
func (a *Advertisement) Stop(reason PauseReason) {
	a.Status = AdStatusStopped
	a.PauseReason = reason
}

// Resume transitions the ad back to running.
func (a *Advertisement) Resume() {
	a.Status = AdStatusRunning
	a.PauseReason = PauseNone
}
