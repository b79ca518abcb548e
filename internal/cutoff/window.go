package cutoff

import (
	"errors"
	"time"
)

// Errors returned by the order window policy.
var (
	ErrCutoffPassed      = errors.New("ordering window for today is closed")
	ErrForbiddenOrderDate = errors.New("order date is not allowed")
	ErrPastDate          = errors.New("past order date is not allowed")
)

// ResolveTargetDate decides which calendar date a submission is for.
// Explicit next-day ordering is always allowed regardless of cut-off;
// same-day ordering fails with ErrCutoffPassed once now is past the
// cut-off. The comparison is minute-granular.
func ResolveTargetDate(now time.Time, cutoff TimeOfDay, orderForNextDay bool) (time.Time, error) {
	today := DateOf(now)
	if orderForNextDay {
		return today.AddDate(0, 0, 1), nil
	}
	if minuteOf(now) > cutoff.minutes() {
		return time.Time{}, ErrCutoffPassed
	}
	return today, nil
}

// EnsureAllowedOrderDate enforces the strict symmetric rule for callers
// that pass an explicit target date: before the cut-off only today is
// accepted, after it only tomorrow.
func EnsureAllowedOrderDate(orderDate, now time.Time, cutoff TimeOfDay) error {
	beforeCutoff := minuteOf(now) <= cutoff.minutes()
	if beforeCutoff {
		if !SameDate(orderDate, now) {
			return ErrForbiddenOrderDate
		}
		return nil
	}
	if !SameDate(orderDate, DateOf(now).AddDate(0, 0, 1)) {
		return ErrForbiddenOrderDate
	}
	return nil
}

// EnsureBeforeCutoff guards mutation (edit/cancel) of an existing order:
// a same-day order is frozen once the cut-off has passed, and orders for
// elapsed dates can never be mutated.
func EnsureBeforeCutoff(orderDate, now time.Time, cutoff TimeOfDay) error {
	if SameDate(orderDate, now) && minuteOf(now) > cutoff.minutes() {
		return ErrCutoffPassed
	}
	if DateOf(orderDate).Before(DateOf(now)) {
		return ErrPastDate
	}
	return nil
}

// WithinWindow reports whether now falls inside the global same-day
// ordering window [open, close).
func WithinWindow(now time.Time, open, close TimeOfDay) bool {
	m := minuteOf(now)
	return open.minutes() <= m && m < close.minutes()
}
