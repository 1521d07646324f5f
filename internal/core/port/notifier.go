package port

import (
	"context"

	"motorlot-ads/internal/core/domain"
)

// EventKind classifies ad lifecycle events emitted for collaborators such
// as the notification/messaging layer.
type EventKind string

const (
	EventCampaignCreated EventKind = "campaign_created"
	EventCampaignStopped EventKind = "campaign_stopped"
	EventCampaignDeleted EventKind = "campaign_deleted"
	EventBudgetExhausted EventKind = "budget_exhausted"
)

// Event describes one state change.
type Event struct {
	Kind     EventKind
	AdID     int64
	DealerID int64
	Reason   domain.PauseReason
}

// Notifier receives fire-and-forget lifecycle events. The engine must be
// fully correct with a no-op implementation; Notify errors are never
// surfaced to callers.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
