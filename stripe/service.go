// Package stripe provides integration with the Stripe payment service:
// checkout session creation and confirmation, webhook verification and the
// reconciliation of subscription, renewal and refund events.
package stripe

import (
	"fmt"
	"time"

	"github.com/itbees/fas-billing/db"
)

// Repository is the read side of the storage layer needed to correlate
// webhook events with internal entities, plus the audit log sink.
type Repository interface {
	UserByEmail(email string) (*db.User, error)
	Company(id string) (*db.Company, error)
	CompanyByVendorSubscriptionID(subscriptionID string) (*db.Company, error)
	Plan(id uint64) (*db.Plan, error)
	AddWebhookAudit(entry *db.WebhookAudit) (uint64, error)
}

// Biller is the domain reconciliation collaborator: it owns the mutations the
// webhook handler triggers on companies, subscriptions and invoices.
type Biller interface {
	CloseSuccessfulPayment(correlationID string, completedAt time.Time, vendorSubscriptionID, eventID string) error
	ApplyPlan(plan *db.Plan, companyID string, from time.Time) error
	RevokeSubscription(companyID string) error
	CreateRenewalInvoice(company *db.Company, plan *db.Plan) (*db.Invoice, error)
	CreateCorrectiveInvoice(companyID string, refundedAmount int64, vendorSubscriptionID string) error
	CreateCorrectiveInvoiceForLastSession(companyID string, refundedAmount int64) error
}

// Service provides the main business logic for Stripe operations
type Service struct {
	api      VendorAPI
	repo     Repository
	billing  Biller
	sessions *SessionService
	config   *Config
}

// NewService creates a new Stripe service
func NewService(config *Config, repo Repository, billing Biller, api VendorAPI, sessions *SessionService) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if billing == nil {
		return nil, fmt.Errorf("billing service is required")
	}
	if api == nil {
		return nil, fmt.Errorf("vendor API is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}

	return &Service{
		api:      api,
		repo:     repo,
		billing:  billing,
		sessions: sessions,
		config:   config,
	}, nil
}

// Sessions returns the payment session service used by this service.
func (s *Service) Sessions() *SessionService {
	return s.sessions
}
