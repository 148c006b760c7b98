package db

import "time"

// User represents a back-office user account. The last used company is the
// fallback used to correlate vendor events that only carry a billing email.
type User struct {
	ID            uint64          `json:"id" bson:"_id"`
	Email         string          `json:"email" bson:"email"`
	Password      string          `json:"password" bson:"password"`
	FirstName     string          `json:"firstName" bson:"firstName"`
	LastName      string          `json:"lastName" bson:"lastName"`
	LastCompanyID string          `json:"lastCompanyID" bson:"lastCompanyID"`
	Companies     []CompanyMember `json:"companies" bson:"companies"`
	Verified      bool            `json:"verified" bson:"verified"`
}

// CompanyMember ties a user to a company with a role.
type CompanyMember struct {
	CompanyID string   `json:"companyID" bson:"companyID"`
	Role      UserRole `json:"role" bson:"role"`
}

// UserRole is the role of a user inside a company.
type UserRole string

// Company is the internal entity that owns a platform subscription.
type Company struct {
	ID           string              `json:"id" bson:"_id"`
	Name         string              `json:"name" bson:"name"`
	Creator      string              `json:"creator" bson:"creator"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	Country      string              `json:"country" bson:"country"`
	Active       bool                `json:"active" bson:"active"`
	Subscription CompanySubscription `json:"subscription" bson:"subscription"`
}

// CompanySubscription holds the subscription state of a company.
type CompanySubscription struct {
	PlanID               uint64    `json:"planID" bson:"planID"`
	VendorSubscriptionID string    `json:"vendorSubscriptionID" bson:"vendorSubscriptionID"`
	StartDate            time.Time `json:"startDate" bson:"startDate"`
	RenewalDate          time.Time `json:"renewalDate" bson:"renewalDate"`
	LastPaymentDate      time.Time `json:"lastPaymentDate" bson:"lastPaymentDate"`
	Active               bool      `json:"active" bson:"active"`
}

// Plan is a platform subscription plan offered to companies. The price is
// expressed in minor currency units. For the custom billing period, the
// interval is passed through to the payment vendor as-is.
type Plan struct {
	ID                  uint64        `json:"id" bson:"_id"`
	Name                string        `json:"name" bson:"name"`
	Default             bool          `json:"default" bson:"default"`
	Price               int64         `json:"price" bson:"price"`
	Currency            string        `json:"currency" bson:"currency"`
	BillingPeriod       BillingPeriod `json:"billingPeriod" bson:"billingPeriod"`
	CustomInterval      string        `json:"customInterval,omitempty" bson:"customInterval"`
	CustomIntervalCount int64         `json:"customIntervalCount,omitempty" bson:"customIntervalCount"`
}

// Invoice is an internal invoice record. Corrective invoices reference the
// refund that triggered them through the vendor subscription id or, when
// unknown, through the last payment session of the company.
type Invoice struct {
	ID                   string    `json:"id" bson:"_id"`
	Number               string    `json:"number" bson:"number"`
	CompanyID            string    `json:"companyID" bson:"companyID"`
	PlanID               uint64    `json:"planID" bson:"planID"`
	Amount               int64     `json:"amount" bson:"amount"`
	Currency             string    `json:"currency" bson:"currency"`
	IssuedAt             time.Time `json:"issuedAt" bson:"issuedAt"`
	CreatedBy            string    `json:"createdBy" bson:"createdBy"`
	Corrective           bool      `json:"corrective" bson:"corrective"`
	VendorSubscriptionID string    `json:"vendorSubscriptionID,omitempty" bson:"vendorSubscriptionID"`
	BasedOnInvoiceID     string    `json:"basedOnInvoiceID,omitempty" bson:"basedOnInvoiceID"`
	Requested            bool      `json:"requested" bson:"requested"`
}

// PaymentSession is the internal record of a checkout session. Its id is the
// correlation GUID sent to the vendor as client reference.
type PaymentSession struct {
	ID                   string               `json:"id" bson:"_id"`
	CompanyID            string               `json:"companyID" bson:"companyID"`
	PlanID               uint64               `json:"planID,omitempty" bson:"planID"`
	CustomerEmail        string               `json:"customerEmail" bson:"customerEmail"`
	CreatedAt            time.Time            `json:"createdAt" bson:"createdAt"`
	CompletedAt          time.Time            `json:"completedAt,omitempty" bson:"completedAt"`
	VendorSessionID      string               `json:"vendorSessionID" bson:"vendorSessionID"`
	VendorSubscriptionID string               `json:"vendorSubscriptionID,omitempty" bson:"vendorSubscriptionID"`
	EventID              string               `json:"eventID,omitempty" bson:"eventID"`
	InvoiceID            string               `json:"invoiceID,omitempty" bson:"invoiceID"`
	Renewal              bool                 `json:"renewal" bson:"renewal"`
	Status               PaymentSessionStatus `json:"status" bson:"status"`
}

// WebhookAudit is the persisted record of a received webhook event, raw
// payload included, for support and manual reconciliation.
type WebhookAudit struct {
	ID       uint64    `json:"id" bson:"_id"`
	EventID  string    `json:"eventID" bson:"eventID"`
	Event    string    `json:"event" bson:"event"`
	Operator string    `json:"operator" bson:"operator"`
	Received time.Time `json:"received" bson:"received"`
	Payload  string    `json:"payload" bson:"payload"`
}
