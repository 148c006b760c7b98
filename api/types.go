package api

import (
	"time"

	"github.com/itbees/fas-billing/db"
)

// UserInfo is the request/response shape of the user endpoints.
type UserInfo struct {
	Email     string         `json:"email,omitempty"`
	Password  string         `json:"password,omitempty"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Verified  bool           `json:"verified,omitempty"`
	Companies []*UserCompany `json:"companies,omitempty"`
}

// UserCompany is a company of the user with the role the user holds in it.
type UserCompany struct {
	Role    string       `json:"role"`
	Company *CompanyInfo `json:"company"`
}

// CompanyInfo is the public shape of a company.
type CompanyInfo struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Country      string                  `json:"country,omitempty"`
	Active       bool                    `json:"active"`
	CreatedAt    time.Time               `json:"createdAt,omitempty"`
	Subscription *db.CompanySubscription `json:"subscription,omitempty"`
}

// LoginResponse is the response of the login request which includes the JWT token
type LoginResponse struct {
	Token    string    `json:"token"`
	Expirity time.Time `json:"expirity"`
}

// CheckoutRequest is the request body to open a checkout session.
type CheckoutRequest struct {
	CompanyID  string `json:"companyID"`
	PlanID     uint64 `json:"planID"`
	OneTime    bool   `json:"oneTime,omitempty"`
	SuccessURL string `json:"successURL,omitempty"`
	CancelURL  string `json:"cancelURL,omitempty"`
}

// CheckoutStatus is the response of the checkout session status endpoint.
type CheckoutStatus struct {
	SessionID string `json:"sessionID"`
	Status    string `json:"status"`
	Paid      bool   `json:"paid"`
}

// companyFromDB converts a stored company into its public shape.
func companyFromDB(company *db.Company) *CompanyInfo {
	if company == nil {
		return nil
	}
	subscription := company.Subscription
	return &CompanyInfo{
		ID:           company.ID,
		Name:         company.Name,
		Country:      company.Country,
		Active:       company.Active,
		CreatedAt:    company.CreatedAt,
		Subscription: &subscription,
	}
}
