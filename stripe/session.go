package stripe

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itbees/fas-billing/db"
	stripeapi "github.com/stripe/stripe-go/v82"
	"go.vocdoni.io/dvote/log"
)

// confirmLookback bounds how far back ConfirmPayment searches the vendor's
// checkout session listing.
const confirmLookback = 48 * time.Hour

// Product is one line item of a payment description. The unit amount is
// expressed in minor currency units.
type Product struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// Payment describes a checkout to open with the vendor. The session ID is the
// internal correlation GUID sent as client reference; when empty a fresh one
// is generated.
type Payment struct {
	SessionID           string
	CompanyID           string
	PlanID              uint64
	InvoiceID           string
	CustomerEmail       string
	Currency            string
	Products            []Product
	BillingPeriod       db.BillingPeriod
	CustomInterval      string
	CustomIntervalCount int64
	Renewal             bool
}

// CreatedSession is the result of opening a checkout with the vendor.
type CreatedSession struct {
	SessionID       string `json:"sessionID"`
	VendorSessionID string `json:"vendorSessionID"`
	URL             string `json:"url"`
}

// SessionStore persists the internal payment session records.
type SessionStore interface {
	SetPaymentSession(session *db.PaymentSession) (string, error)
	PaymentSession(id string) (*db.PaymentSession, error)
}

// SessionService builds checkout sessions against the vendor API and confirms
// their payment status afterwards.
type SessionService struct {
	api    VendorAPI
	store  SessionStore
	config *Config
}

// NewSessionService creates a new payment session service.
func NewSessionService(api VendorAPI, store SessionStore, config *Config) *SessionService {
	return &SessionService{
		api:    api,
		store:  store,
		config: config,
	}
}

// recurringInterval maps a billing period to the vendor's interval unit and
// count. Multi-month periods map to a "month" unit with a multiplied count,
// and the custom period passes the configured interval through.
func recurringInterval(period db.BillingPeriod, customInterval string, customCount int64) (string, int64, error) {
	switch period {
	case db.BillingPeriodDaily:
		return "day", 1, nil
	case db.BillingPeriodWeekly:
		return "week", 1, nil
	case db.BillingPeriodMonthly:
		return "month", 1, nil
	case db.BillingPeriodEvery3Months:
		return "month", 3, nil
	case db.BillingPeriodEvery6Months:
		return "month", 6, nil
	case db.BillingPeriodYearly:
		return "year", 1, nil
	case db.BillingPeriodCustom:
		if customInterval == "" {
			return "", 0, NewStripeError("invalid_configuration", "custom billing period without interval", nil)
		}
		if customCount <= 0 {
			customCount = 1
		}
		return customInterval, customCount, nil
	default:
		return "", 0, NewStripeError("invalid_configuration",
			fmt.Sprintf("unknown billing period %q", period), nil)
	}
}

// CreateSession opens a checkout session with the vendor, one line item per
// product. For recurring payments the line items carry the interval derived
// from the billing period. The internal session record is persisted with an
// open status and its ID is sent to the vendor as the client reference, so
// the completion webhook can correlate it back.
func (ss *SessionService) CreateSession(payment *Payment, oneTime bool, successURL, cancelURL string) (*CreatedSession, error) {
	if len(payment.Products) == 0 {
		return nil, NewStripeError("invalid_configuration", "payment without products", nil)
	}
	if payment.SessionID == "" {
		payment.SessionID = uuid.NewString()
	}
	if successURL == "" {
		successURL = ss.config.SuccessURL
	}
	if cancelURL == "" {
		cancelURL = ss.config.CancelURL
	}

	mode := stripeapi.CheckoutSessionModePayment
	var recurring *stripeapi.CheckoutSessionLineItemPriceDataRecurringParams
	if !oneTime {
		interval, count, err := recurringInterval(payment.BillingPeriod, payment.CustomInterval, payment.CustomIntervalCount)
		if err != nil {
			return nil, err
		}
		mode = stripeapi.CheckoutSessionModeSubscription
		recurring = &stripeapi.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval:      stripeapi.String(interval),
			IntervalCount: stripeapi.Int64(count),
		}
	}

	lineItems := make([]*stripeapi.CheckoutSessionLineItemParams, 0, len(payment.Products))
	for _, product := range payment.Products {
		quantity := product.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		lineItems = append(lineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency: stripeapi.String(payment.Currency),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(product.Name),
				},
				UnitAmount: stripeapi.Int64(product.UnitAmount),
				Recurring:  recurring,
			},
			Quantity: stripeapi.Int64(quantity),
		})
	}

	checkoutParams := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(mode)),
		LineItems:         lineItems,
		ClientReferenceID: stripeapi.String(payment.SessionID),
		SuccessURL:        stripeapi.String(redirectURL(successURL, payment.SessionID)),
		CancelURL:         stripeapi.String(redirectURL(cancelURL, payment.SessionID)),
	}
	if payment.CustomerEmail != "" {
		checkoutParams.CustomerEmail = stripeapi.String(payment.CustomerEmail)
	}

	session, err := ss.api.CreateCheckoutSession(checkoutParams)
	if err != nil {
		return nil, err
	}

	record := &db.PaymentSession{
		ID:              payment.SessionID,
		CompanyID:       payment.CompanyID,
		PlanID:          payment.PlanID,
		InvoiceID:       payment.InvoiceID,
		CustomerEmail:   payment.CustomerEmail,
		VendorSessionID: session.ID,
		Renewal:         payment.Renewal,
		Status:          db.PaymentSessionOpen,
	}
	if _, err := ss.store.SetPaymentSession(record); err != nil {
		return nil, NewStripeError("api_call_failed", "failed to persist payment session", err)
	}

	log.Infow("checkout session created",
		"sessionID", payment.SessionID,
		"vendorSessionID", session.ID,
		"company", payment.CompanyID,
		"renewal", payment.Renewal)
	return &CreatedSession{
		SessionID:       payment.SessionID,
		VendorSessionID: session.ID,
		URL:             session.URL,
	}, nil
}

// ConfirmPayment paginates the vendor's recent checkout sessions looking for
// one whose client reference matches the given correlation GUID. It returns
// whether that session reached the paid status, and false when the listing is
// exhausted without a match.
func (ss *SessionService) ConfirmPayment(correlationID string) (bool, error) {
	if _, err := uuid.Parse(correlationID); err != nil {
		return false, NewStripeError("invalid_configuration", "malformed correlation id", err)
	}
	createdAfter := time.Now().Add(-confirmLookback)
	startingAfter := ""
	for {
		sessions, hasMore, err := ss.api.CheckoutSessions(createdAfter, startingAfter)
		if err != nil {
			return false, err
		}
		for _, session := range sessions {
			if session.ClientReferenceID == correlationID {
				return session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid, nil
			}
		}
		if !hasMore || len(sessions) == 0 {
			return false, nil
		}
		startingAfter = sessions[len(sessions)-1].ID
	}
}

// redirectURL appends the correlation GUID to a redirect URL template so the
// front-end can look up the session after the vendor redirects back.
func redirectURL(base, sessionID string) string {
	return fmt.Sprintf("%s?guid=%s", base, sessionID)
}
