package enum

// ── Table state machine ──

const (
	TableStatusAvailable = "Available"
	TableStatusRunning   = "Running"
	TableStatusBilling   = "Billing"
	// TableStatusClosed marks a table taken out of service by maintenance.
	// No lifecycle operation produces or consumes it.
	TableStatusClosed = "Closed"
)

const (
	TableCategoryDineIn  = "Dine-in"
	TableCategoryTerrace = "Terrace"
	TableCategoryBanquet = "Banquet"
	TableCategoryGazebo  = "Gazebo"
	TableCategoryParcel  = "Parcel"
)

// ── Online delivery order state machine ──

const (
	OnlineOrderStatusNew            = "New"
	OnlineOrderStatusAccepted       = "Accepted"
	OnlineOrderStatusPreparing      = "Preparing"
	OnlineOrderStatusOutForDelivery = "Out for Delivery"
	OnlineOrderStatusCompleted      = "Completed"
)

// ── Roles and labels ──

const (
	UserRoleAdmin   = "admin"
	UserRoleCaptain = "captain"
)

const (
	PaymentModeCash  = "Cash"
	PaymentModeCard  = "Card"
	PaymentModeUPI   = "UPI"
	PaymentModeOther = "Other"
)
