package enum

// ── Order fulfillment states (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPrepared  = "prepared"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ── User roles (CHECK constrained in DB) ──

// Role is a closed set; call Valid before trusting external input.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleRestaurant Role = "RESTAURANT"
	RoleCustomer   Role = "CUSTOMER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRestaurant, RoleCustomer:
		return true
	}
	return false
}

// ── Payment methods (no DB constraint, configurable labels) ──

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodDeferred = "ON_ACCOUNT"
)

// ── App setting keys ──

const (
	SettingOrderingOpenTime  = "ordering_open_time"
	SettingOrderingCloseTime = "ordering_close_time"
)
