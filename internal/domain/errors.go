package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the stable outcome code surfaced to callers. Clients branch
// on kinds, never on message text.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindForbidden              Kind = "forbidden"
	KindInvalidDateRange       Kind = "invalid_date_range"
	KindPastStartDate          Kind = "past_start_date"
	KindItemUnavailable        Kind = "item_unavailable"
	KindSelfBookingForbidden   Kind = "self_booking_forbidden"
	KindDateConflict           Kind = "date_conflict"
	KindInvalidStateTransition Kind = "invalid_state_transition"
)

// Error is a business outcome with a stable kind and the context needed
// to act on it. Infrastructure faults are never wrapped into one.
type Error struct {
	Kind      Kind
	Message   string
	RentalID  int64
	ProductID int64
	Actor     string
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors by kind, so errors.Is(err, domain.ErrDateConflict)
// works regardless of the context fields.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks and tests.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrInvalidDateRange       = &Error{Kind: KindInvalidDateRange}
	ErrPastStartDate          = &Error{Kind: KindPastStartDate}
	ErrItemUnavailable        = &Error{Kind: KindItemUnavailable}
	ErrSelfBookingForbidden   = &Error{Kind: KindSelfBookingForbidden}
	ErrDateConflict           = &Error{Kind: KindDateConflict}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
)

// KindOf extracts the business kind, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
