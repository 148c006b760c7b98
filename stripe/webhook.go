package stripe

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itbees/fas-billing/db"
	stripeapi "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"go.vocdoni.io/dvote/log"
)

// replayTolerance is the maximum age of a webhook event before its signature
// timestamp is rejected.
const replayTolerance = 300 * time.Second

// auditOperator marks audit entries produced by the webhook endpoint.
const auditOperator = "webhook"

// HandleWebhookEvent verifies an inbound webhook delivery and dispatches it
// to the handler for its event type. Every verified event gets exactly one
// audit entry with the raw payload, including events whose downstream
// processing fails. A signature failure gets an audit entry of its own and
// surfaces as a validation error.
func (s *Service) HandleWebhookEvent(payload []byte, signatureHeader string) error {
	event, err := stripewebhook.ConstructEventWithTolerance(payload, signatureHeader, s.config.WebhookSecret, replayTolerance)
	if err != nil {
		if _, auditErr := s.repo.AddWebhookAudit(&db.WebhookAudit{
			Event:    "error",
			Operator: auditOperator,
			Payload:  fmt.Sprintf("Webhook error ! %v", err),
		}); auditErr != nil {
			log.Warnf("stripe webhook: failed to record audit entry: %v", auditErr)
		}
		return NewStripeError("webhook_validation", "webhook signature validation failed", err)
	}

	if _, err := s.repo.AddWebhookAudit(&db.WebhookAudit{
		EventID:  event.ID,
		Event:    string(event.Type),
		Operator: auditOperator,
		Received: time.Unix(event.Created, 0),
		Payload:  string(payload),
	}); err != nil {
		return NewStripeError("api_call_failed", "failed to record audit entry", err)
	}

	return s.handleEvent(&event)
}

// handleEvent dispatches a verified event by its type. Unrecognized types are
// acknowledged as no-ops.
func (s *Service) handleEvent(event *stripeapi.Event) error {
	switch event.Type {
	case stripeapi.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(event)
	case stripeapi.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoicePaid(event)
	case stripeapi.EventTypeCustomerSubscriptionUpdated:
		return s.handleSubscriptionUpdated(event)
	case stripeapi.EventTypeChargeSucceeded:
		return s.handleChargeSucceeded(event)
	case stripeapi.EventTypeChargeRefunded, stripeapi.EventTypeChargeRefundUpdated:
		s.handleRefund(event)
		return nil
	default:
		if strings.HasPrefix(string(event.Type), "refund.") {
			s.handleRefund(event)
			return nil
		}
		log.Debugf("stripe webhook: received unhandled event type %s (id %s)", event.Type, event.ID)
		return nil
	}
}

// handleCheckoutCompleted closes the internal payment session referenced by
// the correlation GUID the checkout was opened with.
func (s *Service) handleCheckoutCompleted(event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return NewStripeError("invalid_event", "failed to parse checkout session from event", err)
	}
	if _, err := uuid.Parse(session.ClientReferenceID); err != nil {
		return NewStripeError("invalid_event",
			fmt.Sprintf("checkout session %s carries no valid correlation id", session.ID), err)
	}

	vendorSubscriptionID := ""
	if session.Subscription != nil {
		vendorSubscriptionID = session.Subscription.ID
	}
	completedAt := time.Unix(session.Created, 0)

	if err := s.billing.CloseSuccessfulPayment(session.ClientReferenceID, completedAt, vendorSubscriptionID, event.ID); err != nil {
		if goerrors.Is(err, db.ErrNotFound) {
			return NewStripeError("session_not_found",
				fmt.Sprintf("no payment session %s to close", session.ClientReferenceID), err)
		}
		return NewStripeError("api_call_failed", "failed to close payment session", err)
	}
	log.Infow("payment session closed",
		"sessionID", session.ClientReferenceID,
		"vendorSubscriptionID", vendorSubscriptionID,
		"event", event.ID)
	return nil
}

// handleInvoicePaid runs the mandatory renewal path: the invoice that
// accompanies the initial subscription creation is skipped, any other paid
// invoice extends the company's plan, creates a renewal invoice and opens a
// renewal payment session. Failures here surface as errors so the vendor
// redelivers the event.
func (s *Service) handleInvoicePaid(event *stripeapi.Event) error {
	var invoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return NewStripeError("invalid_event", "failed to parse invoice from event", err)
	}
	if invoice.BillingReason == stripeapi.InvoiceBillingReasonSubscriptionCreate {
		log.Debugf("stripe webhook: invoice %s accompanies subscription creation, skipping renewal", invoice.ID)
		return nil
	}

	if err := s.renewSubscription(invoiceSubscriptionID(&invoice), invoice.CustomerEmail, time.Unix(invoice.Created, 0)); err != nil {
		log.Errorf("stripe webhook: renewal for invoice %s failed: %v", invoice.ID, err)
		return err
	}
	return nil
}

// handleSubscriptionUpdated runs the best-effort renewal path keyed by the
// subscription's customer email. Lookup failures are logged and swallowed.
func (s *Service) handleSubscriptionUpdated(event *stripeapi.Event) error {
	var subscription stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		log.Warnf("stripe webhook: failed to parse subscription from event %s: %v", event.ID, err)
		return nil
	}

	email := ""
	if subscription.Customer != nil {
		customer, err := s.api.Customer(subscription.Customer.ID)
		if err != nil {
			log.Warnf("stripe webhook: failed to fetch customer %s: %v", subscription.Customer.ID, err)
		} else {
			email = customer.Email
		}
	}

	from := time.Now()
	if subscription.Items != nil && len(subscription.Items.Data) > 0 && subscription.Items.Data[0].CurrentPeriodStart > 0 {
		from = time.Unix(subscription.Items.Data[0].CurrentPeriodStart, 0)
	}

	if err := s.renewSubscription(subscription.ID, email, from); err != nil {
		log.Warnf("stripe webhook: best-effort renewal for subscription %s skipped: %v", subscription.ID, err)
	}
	return nil
}

// handleChargeSucceeded runs the best-effort renewal path keyed by the billing
// email of the charge.
func (s *Service) handleChargeSucceeded(event *stripeapi.Event) error {
	var charge stripeapi.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		log.Warnf("stripe webhook: failed to parse charge from event %s: %v", event.ID, err)
		return nil
	}
	email := chargeEmail(&charge)
	if email == "" {
		log.Debugf("stripe webhook: charge %s carries no billing email, skipping renewal", charge.ID)
		return nil
	}
	if err := s.renewSubscription("", email, time.Unix(charge.Created, 0)); err != nil {
		log.Warnf("stripe webhook: best-effort renewal for charge %s skipped: %v", charge.ID, err)
	}
	return nil
}

// renewSubscription resolves the paying company, extends its plan from the
// given timestamp, creates a renewal invoice based on the previous one and
// opens the renewal payment session.
func (s *Service) renewSubscription(vendorSubscriptionID, billingEmail string, from time.Time) error {
	company, err := s.resolveCompany(vendorSubscriptionID, billingEmail)
	if err != nil {
		return err
	}
	if company.Subscription.PlanID == 0 {
		return NewStripeError("plan_not_found",
			fmt.Sprintf("company %s has no active plan", company.ID), nil)
	}
	plan, err := s.repo.Plan(company.Subscription.PlanID)
	if err != nil {
		return NewStripeError("plan_not_found",
			fmt.Sprintf("plan %d of company %s not found", company.Subscription.PlanID, company.ID), err)
	}

	if err := s.billing.ApplyPlan(plan, company.ID, from); err != nil {
		return NewStripeError("api_call_failed", "failed to apply plan", err)
	}
	invoice, err := s.billing.CreateRenewalInvoice(company, plan)
	if err != nil {
		return NewStripeError("api_call_failed", "failed to create renewal invoice", err)
	}

	email := billingEmail
	if email == "" {
		email = company.Creator
	}
	created, err := s.sessions.CreateSession(&Payment{
		CompanyID:           company.ID,
		PlanID:              plan.ID,
		InvoiceID:           invoice.ID,
		CustomerEmail:       email,
		Currency:            plan.Currency,
		Products:            []Product{{Name: plan.Name, UnitAmount: plan.Price, Quantity: 1}},
		BillingPeriod:       plan.BillingPeriod,
		CustomInterval:      plan.CustomInterval,
		CustomIntervalCount: plan.CustomIntervalCount,
		Renewal:             true,
	}, false, "", "")
	if err != nil {
		return err
	}

	log.Infow("subscription renewed",
		"company", company.ID,
		"plan", plan.ID,
		"invoice", invoice.ID,
		"renewalSession", created.SessionID)
	return nil
}

// resolveCompany correlates a webhook event with the paying company: first by
// the vendor subscription id, else via billing email, its user and the user's
// last used company.
func (s *Service) resolveCompany(vendorSubscriptionID, billingEmail string) (*db.Company, error) {
	if vendorSubscriptionID != "" {
		company, err := s.repo.CompanyByVendorSubscriptionID(vendorSubscriptionID)
		if err == nil {
			return company, nil
		}
		if !goerrors.Is(err, db.ErrNotFound) {
			return nil, NewStripeError("api_call_failed", "failed to look up company by subscription", err)
		}
	}
	if billingEmail == "" {
		return nil, NewStripeError("company_not_found", "no subscription id or billing email to correlate", nil)
	}
	user, err := s.repo.UserByEmail(billingEmail)
	if err != nil {
		return nil, NewStripeError("user_not_found",
			fmt.Sprintf("no user with email %s", billingEmail), err)
	}
	if user.LastCompanyID == "" {
		return nil, NewStripeError("company_not_found",
			fmt.Sprintf("user %s has no last used company", billingEmail), nil)
	}
	company, err := s.repo.Company(user.LastCompanyID)
	if err != nil {
		return nil, NewStripeError("company_not_found",
			fmt.Sprintf("company %s of user %s not found", user.LastCompanyID, billingEmail), err)
	}
	return company, nil
}

// refundContext collects what could be learned about a refund. Vendor lookup
// failures leave fields empty instead of aborting the reconciliation.
type refundContext struct {
	chargeID             string
	paymentIntentID      string
	customerID           string
	amount               int64
	amountCaptured       int64
	amountRefunded       int64
	vendorSubscriptionID string
	customerEmail        string
}

// handleRefund reconciles a refund-family event. The payload may be either a
// refund object or a charge object; the context is enriched with vendor
// lookups (charge, invoice via payment intent, customer), each individually
// tolerated. On a full refund the company's subscription access is revoked
// and a corrective invoice is created. Nothing in this path propagates an
// error: a malformed or unfindable refund must not fail the request.
func (s *Service) handleRefund(event *stripeapi.Event) {
	var probe struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(event.Data.Raw, &probe); err != nil {
		log.Warnf("stripe webhook: malformed refund payload for event %s: %v", event.ID, err)
		return
	}

	rc := &refundContext{}
	switch probe.Object {
	case "refund":
		var refund stripeapi.Refund
		if err := json.Unmarshal(event.Data.Raw, &refund); err != nil {
			log.Warnf("stripe webhook: failed to parse refund from event %s: %v", event.ID, err)
			return
		}
		rc.amountRefunded = refund.Amount
		if refund.Charge != nil {
			rc.chargeID = refund.Charge.ID
		}
	case "charge":
		var charge stripeapi.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Warnf("stripe webhook: failed to parse charge from event %s: %v", event.ID, err)
			return
		}
		rc.fillFromCharge(&charge)
	default:
		log.Warnf("stripe webhook: unexpected refund payload object %q for event %s", probe.Object, event.ID)
		return
	}

	// enrich the context with vendor lookups, each one tolerated
	if rc.chargeID != "" && rc.amountCaptured == 0 && rc.amount == 0 {
		if charge, err := s.api.Charge(rc.chargeID); err != nil {
			log.Warnf("stripe webhook: failed to fetch charge %s: %v", rc.chargeID, err)
		} else {
			rc.fillFromCharge(charge)
		}
	}
	if rc.paymentIntentID != "" {
		if invoice, err := s.api.InvoiceByPaymentIntent(rc.paymentIntentID); err != nil {
			log.Warnf("stripe webhook: failed to fetch invoice for payment intent %s: %v", rc.paymentIntentID, err)
		} else {
			rc.vendorSubscriptionID = invoiceSubscriptionID(invoice)
			if rc.customerEmail == "" {
				rc.customerEmail = invoice.CustomerEmail
			}
		}
	}
	if rc.customerEmail == "" && rc.customerID != "" {
		if customer, err := s.api.Customer(rc.customerID); err != nil {
			log.Warnf("stripe webhook: failed to fetch customer %s: %v", rc.customerID, err)
		} else {
			rc.customerEmail = customer.Email
		}
	}

	if rc.amountRefunded == 0 {
		log.Warnf("stripe webhook: refund event %s carries no refunded amount, nothing to reconcile", event.ID)
		return
	}

	company, err := s.resolveCompany(rc.vendorSubscriptionID, rc.customerEmail)
	if err != nil {
		log.Warnf("stripe webhook: refund event %s could not be correlated with a company: %v", event.ID, err)
		return
	}

	if !rc.fullRefund() {
		log.Infow("partial refund received, no action taken",
			"event", event.ID,
			"company", company.ID,
			"amountRefunded", rc.amountRefunded)
		return
	}

	if err := s.billing.RevokeSubscription(company.ID); err != nil {
		log.Errorf("stripe webhook: failed to revoke subscription of company %s: %v", company.ID, err)
	}
	if rc.vendorSubscriptionID != "" {
		if err := s.billing.CreateCorrectiveInvoice(company.ID, rc.amountRefunded, rc.vendorSubscriptionID); err != nil {
			log.Errorf("stripe webhook: failed to create corrective invoice for company %s: %v", company.ID, err)
		}
	} else {
		if err := s.billing.CreateCorrectiveInvoiceForLastSession(company.ID, rc.amountRefunded); err != nil {
			log.Errorf("stripe webhook: failed to create corrective invoice for company %s: %v", company.ID, err)
		}
	}
	log.Infow("full refund reconciled",
		"event", event.ID,
		"company", company.ID,
		"amountRefunded", rc.amountRefunded,
		"vendorSubscriptionID", rc.vendorSubscriptionID)
}

// fillFromCharge copies the refund-relevant fields of a charge into the
// context without overwriting already known values.
func (rc *refundContext) fillFromCharge(charge *stripeapi.Charge) {
	rc.chargeID = charge.ID
	rc.amount = charge.Amount
	rc.amountCaptured = charge.AmountCaptured
	if charge.AmountRefunded > rc.amountRefunded {
		rc.amountRefunded = charge.AmountRefunded
	}
	if rc.customerEmail == "" {
		rc.customerEmail = chargeEmail(charge)
	}
	if charge.PaymentIntent != nil {
		rc.paymentIntentID = charge.PaymentIntent.ID
	}
	if rc.customerID == "" && charge.Customer != nil {
		rc.customerID = charge.Customer.ID
	}
}

// fullRefund reports whether the refunded amount covers the whole charge,
// comparing against the captured amount or the charge amount, whichever is
// greater.
func (rc *refundContext) fullRefund() bool {
	captured := rc.amountCaptured
	if rc.amount > captured {
		captured = rc.amount
	}
	return rc.amountRefunded >= captured
}

// invoiceSubscriptionID extracts the subscription id an invoice belongs to,
// if any.
func invoiceSubscriptionID(invoice *stripeapi.Invoice) string {
	if invoice == nil || invoice.Parent == nil || invoice.Parent.SubscriptionDetails == nil {
		return ""
	}
	if invoice.Parent.SubscriptionDetails.Subscription == nil {
		return ""
	}
	return invoice.Parent.SubscriptionDetails.Subscription.ID
}

// chargeEmail returns the best known billing email of a charge.
func chargeEmail(charge *stripeapi.Charge) string {
	if charge.BillingDetails != nil && charge.BillingDetails.Email != "" {
		return charge.BillingDetails.Email
	}
	return charge.ReceiptEmail
}
