package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const restaurantColumns = `id, name, is_active, created_at, updated_at`

func scanRestaurant(row interface{ Scan(dest ...interface{}) error }) (Restaurant, error) {
	var r Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const createRestaurant = `
INSERT INTO restaurants (name)
VALUES ($1)
RETURNING ` + restaurantColumns

func (q *Queries) CreateRestaurant(ctx context.Context, name string) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, createRestaurant, name))
}

const getRestaurant = `
SELECT ` + restaurantColumns + `
FROM restaurants
WHERE id = $1`

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, getRestaurant, id))
}

const listRestaurants = `
SELECT ` + restaurantColumns + `
FROM restaurants
ORDER BY name ASC`

func (q *Queries) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, listRestaurants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

const updateRestaurant = `
UPDATE restaurants
SET name = $2, is_active = $3, updated_at = now()
WHERE id = $1
RETURNING ` + restaurantColumns

type UpdateRestaurantParams struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}

func (q *Queries) UpdateRestaurant(ctx context.Context, arg UpdateRestaurantParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, updateRestaurant, arg.ID, arg.Name, arg.IsActive))
}

const listActiveRestaurantsForLocation = `
SELECT r.id, r.name, r.is_active, r.created_at, r.updated_at
FROM restaurants r
JOIN restaurant_locations rl ON rl.restaurant_id = r.id
WHERE r.is_active = true
  AND rl.location_id = $1
  AND rl.is_active = true
ORDER BY r.name ASC`

func (q *Queries) ListActiveRestaurantsForLocation(ctx context.Context, locationID uuid.UUID) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, listActiveRestaurantsForLocation, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

// --- Restaurant-location coverage ---

const restaurantLocationColumns = `id, restaurant_id, location_id, cut_off_time_override, is_active, created_at`

func scanRestaurantLocation(row interface{ Scan(dest ...interface{}) error }) (RestaurantLocation, error) {
	var rl RestaurantLocation
	err := row.Scan(&rl.ID, &rl.RestaurantID, &rl.LocationID, &rl.CutOffTimeOverride, &rl.IsActive, &rl.CreatedAt)
	return rl, err
}

const upsertRestaurantLocation = `
INSERT INTO restaurant_locations (restaurant_id, location_id, cut_off_time_override, is_active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (restaurant_id, location_id)
DO UPDATE SET cut_off_time_override = EXCLUDED.cut_off_time_override, is_active = EXCLUDED.is_active
RETURNING ` + restaurantLocationColumns

type UpsertRestaurantLocationParams struct {
	RestaurantID       uuid.UUID
	LocationID         uuid.UUID
	CutOffTimeOverride pgtype.Text
	IsActive           bool
}

func (q *Queries) UpsertRestaurantLocation(ctx context.Context, arg UpsertRestaurantLocationParams) (RestaurantLocation, error) {
	row := q.db.QueryRow(ctx, upsertRestaurantLocation,
		arg.RestaurantID,
		arg.LocationID,
		arg.CutOffTimeOverride,
		arg.IsActive,
	)
	return scanRestaurantLocation(row)
}

const getRestaurantLocation = `
SELECT ` + restaurantLocationColumns + `
FROM restaurant_locations
WHERE restaurant_id = $1 AND location_id = $2`

type GetRestaurantLocationParams struct {
	RestaurantID uuid.UUID
	LocationID   uuid.UUID
}

func (q *Queries) GetRestaurantLocation(ctx context.Context, arg GetRestaurantLocationParams) (RestaurantLocation, error) {
	return scanRestaurantLocation(q.db.QueryRow(ctx, getRestaurantLocation, arg.RestaurantID, arg.LocationID))
}

const listRestaurantLocations = `
SELECT ` + restaurantLocationColumns + `
FROM restaurant_locations
WHERE restaurant_id = $1
ORDER BY created_at ASC`

func (q *Queries) ListRestaurantLocations(ctx context.Context, restaurantID uuid.UUID) ([]RestaurantLocation, error) {
	rows, err := q.db.Query(ctx, listRestaurantLocations, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []RestaurantLocation
	for rows.Next() {
		rl, err := scanRestaurantLocation(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, rl)
	}
	return mappings, rows.Err()
}

// --- Served postal codes ---

const addRestaurantPostalCode = `
INSERT INTO restaurant_postal_codes (restaurant_id, postal_code)
VALUES ($1, $2)
ON CONFLICT (restaurant_id, postal_code) DO NOTHING
RETURNING id, restaurant_id, postal_code`

type AddRestaurantPostalCodeParams struct {
	RestaurantID uuid.UUID
	PostalCode   string
}

func (q *Queries) AddRestaurantPostalCode(ctx context.Context, arg AddRestaurantPostalCodeParams) (RestaurantPostalCode, error) {
	var pc RestaurantPostalCode
	err := q.db.QueryRow(ctx, addRestaurantPostalCode, arg.RestaurantID, arg.PostalCode).
		Scan(&pc.ID, &pc.RestaurantID, &pc.PostalCode)
	return pc, err
}

const deleteRestaurantPostalCode = `
DELETE FROM restaurant_postal_codes
WHERE restaurant_id = $1 AND postal_code = $2`

type DeleteRestaurantPostalCodeParams struct {
	RestaurantID uuid.UUID
	PostalCode   string
}

func (q *Queries) DeleteRestaurantPostalCode(ctx context.Context, arg DeleteRestaurantPostalCodeParams) error {
	_, err := q.db.Exec(ctx, deleteRestaurantPostalCode, arg.RestaurantID, arg.PostalCode)
	return err
}

const listRestaurantPostalCodes = `
SELECT id, restaurant_id, postal_code
FROM restaurant_postal_codes
WHERE restaurant_id = $1
ORDER BY postal_code ASC`

func (q *Queries) ListRestaurantPostalCodes(ctx context.Context, restaurantID uuid.UUID) ([]RestaurantPostalCode, error) {
	rows, err := q.db.Query(ctx, listRestaurantPostalCodes, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []RestaurantPostalCode
	for rows.Next() {
		var pc RestaurantPostalCode
		if err := rows.Scan(&pc.ID, &pc.RestaurantID, &pc.PostalCode); err != nil {
			return nil, err
		}
		codes = append(codes, pc)
	}
	return codes, rows.Err()
}

const restaurantServesPostalCode = `
SELECT EXISTS (
	SELECT 1 FROM restaurant_postal_codes
	WHERE restaurant_id = $1 AND postal_code = $2
)`

type RestaurantServesPostalCodeParams struct {
	RestaurantID uuid.UUID
	PostalCode   string
}

func (q *Queries) RestaurantServesPostalCode(ctx context.Context, arg RestaurantServesPostalCodeParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, restaurantServesPostalCode, arg.RestaurantID, arg.PostalCode).Scan(&exists)
	return exists, err
}
