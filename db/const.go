package db

// BillingPeriod is the billing interval of a subscription plan.
type BillingPeriod string

const (
	// user roles
	AdminRole   UserRole = "admin"
	ManagerRole UserRole = "manager"
	ViewerRole  UserRole = "viewer"
	// billing periods
	BillingPeriodDaily        BillingPeriod = "daily"
	BillingPeriodWeekly       BillingPeriod = "weekly"
	BillingPeriodMonthly      BillingPeriod = "monthly"
	BillingPeriodEvery3Months BillingPeriod = "every3months"
	BillingPeriodEvery6Months BillingPeriod = "every6months"
	BillingPeriodYearly       BillingPeriod = "yearly"
	BillingPeriodCustom       BillingPeriod = "custom"
)

// PaymentSessionStatus is the lifecycle status of a payment session.
type PaymentSessionStatus string

const (
	PaymentSessionOpen    PaymentSessionStatus = "open"
	PaymentSessionPaid    PaymentSessionStatus = "paid"
	PaymentSessionExpired PaymentSessionStatus = "expired"
)

// writableRoles is a map that contains if the role is writable or not
var writableRoles = map[UserRole]bool{
	AdminRole:   true,
	ManagerRole: true,
	ViewerRole:  false,
}

// HasWriteAccess function checks if the user role has write access
func HasWriteAccess(role UserRole) bool {
	return writableRoles[role]
}

// validBillingPeriods is a map that contains the valid billing periods
var validBillingPeriods = map[BillingPeriod]bool{
	BillingPeriodDaily:        true,
	BillingPeriodWeekly:       true,
	BillingPeriodMonthly:      true,
	BillingPeriodEvery3Months: true,
	BillingPeriodEvery6Months: true,
	BillingPeriodYearly:       true,
	BillingPeriodCustom:       true,
}

// IsValidBillingPeriod function checks if the billing period is valid
func IsValidBillingPeriod(bp BillingPeriod) bool {
	_, valid := validBillingPeriods[bp]
	return valid
}

// validRoles is a map that contains the valid user roles
var validRoles = map[UserRole]bool{
	AdminRole:   true,
	ManagerRole: true,
	ViewerRole:  true,
}

// IsValidUserRole function checks if the user role is valid
func IsValidUserRole(role UserRole) bool {
	_, valid := validRoles[role]
	return valid
}
