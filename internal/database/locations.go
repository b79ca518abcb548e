package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const locationColumns = `id, company_name, address, postal_code, delivery_window_start, delivery_window_end, cutoff_time, is_active, created_at, updated_at`

func scanLocation(row interface{ Scan(dest ...interface{}) error }) (Location, error) {
	var l Location
	err := row.Scan(
		&l.ID,
		&l.CompanyName,
		&l.Address,
		&l.PostalCode,
		&l.DeliveryWindowStart,
		&l.DeliveryWindowEnd,
		&l.CutoffTime,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

const createLocation = `
INSERT INTO locations (company_name, address, postal_code, delivery_window_start, delivery_window_end, cutoff_time)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + locationColumns

type CreateLocationParams struct {
	CompanyName         string
	Address             string
	PostalCode          pgtype.Text
	DeliveryWindowStart pgtype.Text
	DeliveryWindowEnd   pgtype.Text
	CutoffTime          pgtype.Text
}

func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (Location, error) {
	row := q.db.QueryRow(ctx, createLocation,
		arg.CompanyName,
		arg.Address,
		arg.PostalCode,
		arg.DeliveryWindowStart,
		arg.DeliveryWindowEnd,
		arg.CutoffTime,
	)
	return scanLocation(row)
}

const getLocation = `
SELECT ` + locationColumns + `
FROM locations
WHERE id = $1`

func (q *Queries) GetLocation(ctx context.Context, id uuid.UUID) (Location, error) {
	return scanLocation(q.db.QueryRow(ctx, getLocation, id))
}

const listActiveLocations = `
SELECT ` + locationColumns + `
FROM locations
WHERE is_active = true
ORDER BY company_name ASC`

func (q *Queries) ListActiveLocations(ctx context.Context) ([]Location, error) {
	rows, err := q.db.Query(ctx, listActiveLocations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

const updateLocation = `
UPDATE locations
SET company_name = $2,
    address = $3,
    postal_code = $4,
    delivery_window_start = $5,
    delivery_window_end = $6,
    cutoff_time = $7,
    updated_at = now()
WHERE id = $1
RETURNING ` + locationColumns

type UpdateLocationParams struct {
	ID                  uuid.UUID
	CompanyName         string
	Address             string
	PostalCode          pgtype.Text
	DeliveryWindowStart pgtype.Text
	DeliveryWindowEnd   pgtype.Text
	CutoffTime          pgtype.Text
}

func (q *Queries) UpdateLocation(ctx context.Context, arg UpdateLocationParams) (Location, error) {
	row := q.db.QueryRow(ctx, updateLocation,
		arg.ID,
		arg.CompanyName,
		arg.Address,
		arg.PostalCode,
		arg.DeliveryWindowStart,
		arg.DeliveryWindowEnd,
		arg.CutoffTime,
	)
	return scanLocation(row)
}

// Locations referenced by orders are never deleted, only deactivated.
const deactivateLocation = `
UPDATE locations
SET is_active = false, updated_at = now()
WHERE id = $1
RETURNING id`

func (q *Queries) DeactivateLocation(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, deactivateLocation, id).Scan(&out)
	return out, err
}
