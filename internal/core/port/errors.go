package port

import (
	"errors"
	"fmt"

	"motorlot-ads/internal/core/domain"
)

// Sentinel errors returned by the ad engine. All of them are expected,
// recoverable-by-caller conditions; use errors.Is to classify.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("caller is not the campaign owner")

	ErrInsufficientReservedFunds = errors.New("insufficient reserved funds")
	ErrCampaignExpired           = errors.New("campaign end date has passed")
	ErrBudgetExhausted           = errors.New("daily budget exhausted")
	ErrDuplicateLead             = errors.New("lead already registered by this user")
	ErrInvalidExtension          = errors.New("new end date must be after current end date")
)

// InsufficientFundsError reports a reservation shortfall with enough detail
// for a human-readable message.
type InsufficientFundsError struct {
	Required     domain.Money
	Available    domain.Money
	CampaignDays int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s for %d days, %s available (short %s)",
		e.Required, e.CampaignDays, e.Available, e.Shortage())
}

// Shortage is the amount the dealer must top up for the reservation to fit.
func (e *InsufficientFundsError) Shortage() domain.Money {
	return e.Required - e.Available
}

// StorageError wraps a persistence-layer failure. The underlying cause is
// for logs only; callers see a generic failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage wraps err as a StorageError unless it already carries a
// domain classification.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the expected caller-facing
// conditions rather than an infrastructure failure.
func IsDomainError(err error) bool {
	var fundsErr *InsufficientFundsError
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInsufficientReservedFunds) ||
		errors.Is(err, ErrCampaignExpired) ||
		errors.Is(err, ErrBudgetExhausted) ||
		errors.Is(err, ErrDuplicateLead) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.As(err, &fundsErr)
}
