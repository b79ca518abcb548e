package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mealdesk/api/internal/enum"
)

// ErrInvalidTransition is returned when the requested status edge does
// not exist in the fulfillment state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// allowedTransitions defines the fulfillment state machine.
// delivered and cancelled are terminal; cancellation is only reachable
// while the kitchen has not started preparing.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusConfirmed, enum.OrderStatusCancelled},
	enum.OrderStatusConfirmed: {enum.OrderStatusPrepared, enum.OrderStatusCancelled},
	enum.OrderStatusPrepared:  {enum.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from current to next.
func CanTransition(current, next string) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// IsValidOrderStatus checks membership in the closed status set.
func IsValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending,
		enum.OrderStatusConfirmed,
		enum.OrderStatusPrepared,
		enum.OrderStatusDelivered,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

// StatusStamps carries the per-state timestamp columns for a transition.
// Exactly one field is valid; the rest are left untouched by the update.
type StatusStamps struct {
	ConfirmedAt pgtype.Timestamptz
	PreparedAt  pgtype.Timestamptz
	DeliveredAt pgtype.Timestamptz
	CancelledAt pgtype.Timestamptz
}

// ApplyTransition validates the edge and returns the timestamp to stamp
// for the target state. Illegal transitions are rejected before any
// mutation happens.
func ApplyTransition(current, next string, now time.Time) (StatusStamps, error) {
	if !CanTransition(current, next) {
		return StatusStamps{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	stamp := pgtype.Timestamptz{Time: now, Valid: true}
	var stamps StatusStamps
	switch next {
	case enum.OrderStatusConfirmed:
		stamps.ConfirmedAt = stamp
	case enum.OrderStatusPrepared:
		stamps.PreparedAt = stamp
	case enum.OrderStatusDelivered:
		stamps.DeliveredAt = stamp
	case enum.OrderStatusCancelled:
		stamps.CancelledAt = stamp
	}
	return stamps, nil
}
