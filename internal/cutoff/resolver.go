package cutoff

import (
	"context"

	"github.com/google/uuid"
	"github.com/mealdesk/api/internal/database"
)

// ResolverStore defines the DB reads the resolver needs.
// Satisfied by *database.Queries; narrow interface for testability.
type ResolverStore interface {
	GetRestaurantLocation(ctx context.Context, arg database.GetRestaurantLocationParams) (database.RestaurantLocation, error)
	GetLocation(ctx context.Context, id uuid.UUID) (database.Location, error)
}

// Resolver picks the effective cut-off for a submission. Precedence:
// active restaurant-location override, then the location's own cut-off,
// then the configured default. It never fails; unreadable or unparsable
// values fall through to the next level.
type Resolver struct {
	store         ResolverStore
	defaultCutoff TimeOfDay
}

func NewResolver(store ResolverStore, defaultCutoff TimeOfDay) *Resolver {
	return &Resolver{store: store, defaultCutoff: defaultCutoff}
}

// Resolve returns the effective cut-off for (restaurant, location).
// restaurantID may be nil for flows that are not restaurant-specific.
func (r *Resolver) Resolve(ctx context.Context, restaurantID *uuid.UUID, locationID uuid.UUID) TimeOfDay {
	if restaurantID != nil {
		mapping, err := r.store.GetRestaurantLocation(ctx, database.GetRestaurantLocationParams{
			RestaurantID: *restaurantID,
			LocationID:   locationID,
		})
		if err == nil && mapping.IsActive && mapping.CutOffTimeOverride.Valid {
			if t, perr := Parse(mapping.CutOffTimeOverride.String); perr == nil {
				return t
			}
		}
	}

	location, err := r.store.GetLocation(ctx, locationID)
	if err == nil && location.CutoffTime.Valid {
		if t, perr := Parse(location.CutoffTime.String); perr == nil {
			return t
		}
	}

	return r.defaultCutoff
}
