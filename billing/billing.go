// Package billing owns the domain mutations triggered by payments: closing
// payment sessions, applying and revoking subscription plans, and issuing
// renewal and corrective invoices.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/notifications"
	"go.vocdoni.io/dvote/log"
)

// Store is the slice of the storage layer the billing service needs.
type Store interface {
	Company(id string) (*db.Company, error)
	SetCompanySubscription(companyID string, subscription *db.CompanySubscription) error
	Plan(id uint64) (*db.Plan, error)
	SetInvoice(invoice *db.Invoice) (string, error)
	LastInvoiceByCompany(companyID string) (*db.Invoice, error)
	PaymentSession(id string) (*db.PaymentSession, error)
	SetPaymentSession(session *db.PaymentSession) (string, error)
	LastPaymentSessionByCompany(companyID string) (*db.PaymentSession, error)
}

// Service implements the domain reconciliation operations. The mail service
// is optional; when set, a notice is sent after each successful renewal.
type Service struct {
	store Store
	mail  notifications.NotificationService
}

// New creates a new billing service.
func New(store Store, mail notifications.NotificationService) *Service {
	return &Service{
		store: store,
		mail:  mail,
	}
}

// CloseSuccessfulPayment marks the payment session with the given correlation
// GUID as paid and activates the subscription of its company. The vendor
// subscription id and the triggering event id are recorded on the session for
// later correlation.
func (s *Service) CloseSuccessfulPayment(correlationID string, completedAt time.Time, vendorSubscriptionID, eventID string) error {
	session, err := s.store.PaymentSession(correlationID)
	if err != nil {
		return fmt.Errorf("payment session %s: %w", correlationID, err)
	}

	session.CompletedAt = completedAt
	session.VendorSubscriptionID = vendorSubscriptionID
	session.EventID = eventID
	session.Status = db.PaymentSessionPaid
	if _, err := s.store.SetPaymentSession(session); err != nil {
		return fmt.Errorf("failed to update payment session %s: %w", correlationID, err)
	}

	if session.CompanyID == "" {
		log.Warnf("billing: payment session %s carries no company, nothing to activate", correlationID)
		return nil
	}
	company, err := s.store.Company(session.CompanyID)
	if err != nil {
		return fmt.Errorf("company %s of session %s: %w", session.CompanyID, correlationID, err)
	}

	planID := session.PlanID
	if planID == 0 {
		planID = company.Subscription.PlanID
	}
	if planID == 0 {
		return fmt.Errorf("payment session %s has no plan to activate", correlationID)
	}
	plan, err := s.store.Plan(planID)
	if err != nil {
		return fmt.Errorf("plan %d: %w", planID, err)
	}

	subscription := &db.CompanySubscription{
		PlanID:               plan.ID,
		VendorSubscriptionID: vendorSubscriptionID,
		StartDate:            completedAt,
		LastPaymentDate:      completedAt,
		RenewalDate:          nextRenewal(completedAt, plan),
		Active:               true,
	}
	if err := s.store.SetCompanySubscription(company.ID, subscription); err != nil {
		return fmt.Errorf("failed to activate subscription of company %s: %w", company.ID, err)
	}
	log.Infow("subscription activated",
		"company", company.ID,
		"plan", plan.ID,
		"session", correlationID)
	return nil
}

// ApplyPlan extends the company's subscription with the given plan, counting
// the new period from the given timestamp.
func (s *Service) ApplyPlan(plan *db.Plan, companyID string, from time.Time) error {
	company, err := s.store.Company(companyID)
	if err != nil {
		return fmt.Errorf("company %s: %w", companyID, err)
	}

	subscription := company.Subscription
	subscription.PlanID = plan.ID
	subscription.LastPaymentDate = from
	subscription.RenewalDate = nextRenewal(from, plan)
	subscription.Active = true
	if subscription.StartDate.IsZero() {
		subscription.StartDate = from
	}
	if err := s.store.SetCompanySubscription(companyID, &subscription); err != nil {
		return fmt.Errorf("failed to extend subscription of company %s: %w", companyID, err)
	}

	s.sendRenewalNotice(company, plan, subscription.RenewalDate)
	log.Infow("plan applied",
		"company", companyID,
		"plan", plan.ID,
		"renewalDate", subscription.RenewalDate)
	return nil
}

// RevokeSubscription removes the company's subscription access, keeping the
// plan reference for support purposes.
func (s *Service) RevokeSubscription(companyID string) error {
	company, err := s.store.Company(companyID)
	if err != nil {
		return fmt.Errorf("company %s: %w", companyID, err)
	}
	subscription := company.Subscription
	subscription.Active = false
	subscription.VendorSubscriptionID = ""
	if err := s.store.SetCompanySubscription(companyID, &subscription); err != nil {
		return fmt.Errorf("failed to revoke subscription of company %s: %w", companyID, err)
	}
	log.Infow("subscription revoked", "company", companyID)
	return nil
}

// CreateRenewalInvoice issues the invoice of a renewal period, based on the
// company's last invoice when one exists and on the plan otherwise.
func (s *Service) CreateRenewalInvoice(company *db.Company, plan *db.Plan) (*db.Invoice, error) {
	invoice := &db.Invoice{
		CompanyID:            company.ID,
		PlanID:               plan.ID,
		Amount:               plan.Price,
		Currency:             plan.Currency,
		IssuedAt:             time.Now(),
		CreatedBy:            "renewal",
		VendorSubscriptionID: company.Subscription.VendorSubscriptionID,
		Requested:            true,
	}

	last, err := s.store.LastInvoiceByCompany(company.ID)
	switch {
	case err == nil:
		invoice.Amount = last.Amount
		if last.Currency != "" {
			invoice.Currency = last.Currency
		}
		invoice.BasedOnInvoiceID = last.ID
	case err == db.ErrNotFound:
		// first renewal without a previous invoice, bill the plan price
	default:
		return nil, fmt.Errorf("last invoice of company %s: %w", company.ID, err)
	}

	id, err := s.store.SetInvoice(invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to store renewal invoice for company %s: %w", company.ID, err)
	}
	invoice.ID = id
	invoice.Number = invoiceNumber(id, invoice.IssuedAt)
	if _, err := s.store.SetInvoice(invoice); err != nil {
		return nil, fmt.Errorf("failed to number renewal invoice %s: %w", id, err)
	}
	return invoice, nil
}

// CreateCorrectiveInvoice issues a negative invoice covering a refunded
// amount, keyed by the vendor subscription the refund belongs to.
func (s *Service) CreateCorrectiveInvoice(companyID string, refundedAmount int64, vendorSubscriptionID string) error {
	invoice := &db.Invoice{
		CompanyID:            companyID,
		Amount:               -refundedAmount,
		IssuedAt:             time.Now(),
		CreatedBy:            "refund",
		Corrective:           true,
		VendorSubscriptionID: vendorSubscriptionID,
	}
	if last, err := s.store.LastInvoiceByCompany(companyID); err == nil {
		invoice.Currency = last.Currency
		invoice.PlanID = last.PlanID
		invoice.BasedOnInvoiceID = last.ID
	}
	id, err := s.store.SetInvoice(invoice)
	if err != nil {
		return fmt.Errorf("failed to store corrective invoice for company %s: %w", companyID, err)
	}
	invoice.ID = id
	invoice.Number = invoiceNumber(id, invoice.IssuedAt)
	if _, err := s.store.SetInvoice(invoice); err != nil {
		return fmt.Errorf("failed to number corrective invoice %s: %w", id, err)
	}
	log.Infow("corrective invoice created",
		"company", companyID,
		"amount", -refundedAmount,
		"vendorSubscriptionID", vendorSubscriptionID)
	return nil
}

// CreateCorrectiveInvoiceForLastSession issues a corrective invoice against
// the company's last paid payment session, used when the refund carries no
// subscription reference.
func (s *Service) CreateCorrectiveInvoiceForLastSession(companyID string, refundedAmount int64) error {
	session, err := s.store.LastPaymentSessionByCompany(companyID)
	if err != nil {
		return fmt.Errorf("last payment session of company %s: %w", companyID, err)
	}
	invoice := &db.Invoice{
		CompanyID:            companyID,
		PlanID:               session.PlanID,
		Amount:               -refundedAmount,
		IssuedAt:             time.Now(),
		CreatedBy:            "refund",
		Corrective:           true,
		VendorSubscriptionID: session.VendorSubscriptionID,
		BasedOnInvoiceID:     session.InvoiceID,
	}
	id, err := s.store.SetInvoice(invoice)
	if err != nil {
		return fmt.Errorf("failed to store corrective invoice for company %s: %w", companyID, err)
	}
	invoice.ID = id
	invoice.Number = invoiceNumber(id, invoice.IssuedAt)
	if _, err := s.store.SetInvoice(invoice); err != nil {
		return fmt.Errorf("failed to number corrective invoice %s: %w", id, err)
	}
	log.Infow("corrective invoice created from last session",
		"company", companyID,
		"session", session.ID,
		"amount", -refundedAmount)
	return nil
}

// sendRenewalNotice emails the company creator about the renewed period. Mail
// failures only produce a warning.
func (s *Service) sendRenewalNotice(company *db.Company, plan *db.Plan, renewalDate time.Time) {
	if s.mail == nil || company.Creator == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	notification := &notifications.Notification{
		ToAddress: company.Creator,
		Subject:   fmt.Sprintf("Your %s subscription has been renewed", plan.Name),
		PlainBody: fmt.Sprintf("The %s subscription of %s has been renewed. The next renewal is due on %s.",
			plan.Name, company.Name, renewalDate.Format("2006-01-02")),
		Body: fmt.Sprintf("<p>The <b>%s</b> subscription of %s has been renewed.</p><p>The next renewal is due on %s.</p>",
			plan.Name, company.Name, renewalDate.Format("2006-01-02")),
	}
	if err := s.mail.SendNotification(ctx, notification); err != nil {
		log.Warnf("billing: failed to send renewal notice to %s: %v", company.Creator, err)
	}
}

// nextRenewal computes when the period started at the given time ends,
// according to the plan's billing period.
func nextRenewal(from time.Time, plan *db.Plan) time.Time {
	switch plan.BillingPeriod {
	case db.BillingPeriodDaily:
		return from.AddDate(0, 0, 1)
	case db.BillingPeriodWeekly:
		return from.AddDate(0, 0, 7)
	case db.BillingPeriodMonthly:
		return from.AddDate(0, 1, 0)
	case db.BillingPeriodEvery3Months:
		return from.AddDate(0, 3, 0)
	case db.BillingPeriodEvery6Months:
		return from.AddDate(0, 6, 0)
	case db.BillingPeriodYearly:
		return from.AddDate(1, 0, 0)
	case db.BillingPeriodCustom:
		count := int(plan.CustomIntervalCount)
		if count <= 0 {
			count = 1
		}
		switch plan.CustomInterval {
		case "day":
			return from.AddDate(0, 0, count)
		case "week":
			return from.AddDate(0, 0, 7*count)
		case "month":
			return from.AddDate(0, count, 0)
		case "year":
			return from.AddDate(count, 0, 0)
		}
	}
	return from.AddDate(0, 1, 0)
}

// invoiceNumber derives a human-readable invoice number from the invoice id
// and issue date.
func invoiceNumber(id string, issuedAt time.Time) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("INV-%d-%s", issuedAt.Year(), short)
}
