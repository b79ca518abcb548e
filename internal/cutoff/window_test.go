package cutoff_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mealdesk/api/internal/cutoff"
)

func at(hour, minute, sec int) time.Time {
	return time.Date(2026, 3, 16, hour, minute, sec, 0, time.UTC)
}

var tenAM = cutoff.MustParse("10:00")

func TestResolveTargetDate_BeforeCutoff(t *testing.T) {
	got, err := cutoff.ResolveTargetDate(at(9, 30, 0), tenAM, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("target date: got %v, want today", got)
	}
}

// The comparison is minute-granular: at exactly the cut-off minute,
// regardless of seconds, same-day ordering is still allowed.
func TestResolveTargetDate_AtCutoffMinute(t *testing.T) {
	got, err := cutoff.ResolveTargetDate(at(10, 0, 59), tenAM, false)
	if err != nil {
		t.Fatalf("10:00:59 with cut-off 10:00 should still be allowed, got %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("target date: got %v, want today", got)
	}
}

func TestResolveTargetDate_AfterCutoff(t *testing.T) {
	_, err := cutoff.ResolveTargetDate(at(10, 1, 0), tenAM, false)
	if !errors.Is(err, cutoff.ErrCutoffPassed) {
		t.Fatalf("expected ErrCutoffPassed, got %v", err)
	}
}

func TestResolveTargetDate_NextDayAlwaysAllowed(t *testing.T) {
	wantTomorrow := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)

	for _, now := range []time.Time{at(9, 0, 0), at(23, 30, 0)} {
		got, err := cutoff.ResolveTargetDate(now, tenAM, true)
		if err != nil {
			t.Fatalf("next-day at %v: unexpected error: %v", now, err)
		}
		if !got.Equal(wantTomorrow) {
			t.Errorf("next-day at %v: got %v, want tomorrow", now, got)
		}
	}
}

func TestEnsureAllowedOrderDate(t *testing.T) {
	today := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	tests := []struct {
		name      string
		orderDate time.Time
		now       time.Time
		wantErr   bool
	}{
		{"today before cutoff", today, at(9, 0, 0), false},
		{"today at cutoff minute", today, at(10, 0, 30), false},
		{"tomorrow before cutoff", tomorrow, at(9, 0, 0), true},
		{"today after cutoff", today, at(11, 0, 0), true},
		{"tomorrow after cutoff", tomorrow, at(11, 0, 0), false},
		{"day after tomorrow after cutoff", dayAfter, at(11, 0, 0), true},
		{"yesterday before cutoff", today.AddDate(0, 0, -1), at(9, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cutoff.EnsureAllowedOrderDate(tt.orderDate, tt.now, tenAM)
			if tt.wantErr && !errors.Is(err, cutoff.ErrForbiddenOrderDate) {
				t.Errorf("expected ErrForbiddenOrderDate, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnsureBeforeCutoff(t *testing.T) {
	today := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)

	if err := cutoff.EnsureBeforeCutoff(today, at(9, 0, 0), tenAM); err != nil {
		t.Errorf("same-day before cutoff: unexpected error: %v", err)
	}
	if err := cutoff.EnsureBeforeCutoff(today, at(10, 30, 0), tenAM); !errors.Is(err, cutoff.ErrCutoffPassed) {
		t.Errorf("same-day after cutoff: expected ErrCutoffPassed, got %v", err)
	}
	// A tomorrow order stays mutable after today's cut-off passes.
	if err := cutoff.EnsureBeforeCutoff(tomorrow, at(15, 0, 0), tenAM); err != nil {
		t.Errorf("next-day order after cutoff: unexpected error: %v", err)
	}
	if err := cutoff.EnsureBeforeCutoff(yesterday, at(9, 0, 0), tenAM); !errors.Is(err, cutoff.ErrPastDate) {
		t.Errorf("past date: expected ErrPastDate, got %v", err)
	}
}

func TestWithinWindow(t *testing.T) {
	open := cutoff.MustParse("06:00")
	close := cutoff.MustParse("23:00")

	tests := []struct {
		now  time.Time
		want bool
	}{
		{at(6, 0, 0), true},   // open bound inclusive
		{at(12, 0, 0), true},
		{at(22, 59, 59), true},
		{at(23, 0, 0), false}, // close bound exclusive
		{at(5, 59, 0), false},
	}
	for _, tt := range tests {
		if got := cutoff.WithinWindow(tt.now, open, close); got != tt.want {
			t.Errorf("WithinWindow(%v): got %v, want %v", tt.now, got, tt.want)
		}
	}
}
