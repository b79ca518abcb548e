package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	RestaurantID   pgtype.UUID
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Location struct {
	ID                  uuid.UUID
	CompanyName         string
	Address             string
	PostalCode          pgtype.Text
	DeliveryWindowStart pgtype.Text
	DeliveryWindowEnd   pgtype.Text
	CutoffTime          pgtype.Text
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Restaurant struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RestaurantLocation struct {
	ID                 uuid.UUID
	RestaurantID       uuid.UUID
	LocationID         uuid.UUID
	CutOffTimeOverride pgtype.Text
	IsActive           bool
	CreatedAt          time.Time
}

type RestaurantPostalCode struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	PostalCode   string
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID pgtype.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Category     pgtype.Text
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	LocationID      uuid.UUID
	RestaurantID    pgtype.UUID
	OrderDate       time.Time
	Status          string
	PaymentMethod   string
	Notes           pgtype.Text
	Fingerprint     string
	OrderSeq        int32
	OrderNumber     string
	TotalAmount     pgtype.Numeric
	CreatedAt       time.Time
	StatusUpdatedAt time.Time
	ConfirmedAt     pgtype.Timestamptz
	PreparedAt      pgtype.Timestamptz
	DeliveredAt     pgtype.Timestamptz
	CancelledAt     pgtype.Timestamptz
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

type AppSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
