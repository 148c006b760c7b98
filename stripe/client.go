package stripe

import (
	"fmt"
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripecharge "github.com/stripe/stripe-go/v82/charge"
	stripecheckoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	stripeinvoicepayment "github.com/stripe/stripe-go/v82/invoicepayment"
	stripepaymentintent "github.com/stripe/stripe-go/v82/paymentintent"
	stripesubscription "github.com/stripe/stripe-go/v82/subscription"
)

// VendorAPI is the narrow capability interface over the payment vendor used
// by the webhook reconciliation and the payment session service. Keeping it
// small makes both testable with fakes.
type VendorAPI interface {
	Charge(id string) (*stripeapi.Charge, error)
	PaymentIntent(id string) (*stripeapi.PaymentIntent, error)
	InvoiceByPaymentIntent(paymentIntentID string) (*stripeapi.Invoice, error)
	Subscription(id string) (*stripeapi.Subscription, error)
	Customer(id string) (*stripeapi.Customer, error)
	CreateCheckoutSession(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
	// CheckoutSessions returns a single page of checkout sessions created
	// after the given time, plus whether more pages remain.
	CheckoutSessions(createdAfter time.Time, startingAfter string) ([]*stripeapi.CheckoutSession, bool, error)
}

// Client wraps the Stripe API client with additional functionality
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Charge retrieves a charge by ID
func (*Client) Charge(id string) (*stripeapi.Charge, error) {
	params := &stripeapi.ChargeParams{}
	chrg, err := stripecharge.Get(id, params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to get charge", err)
	}
	return chrg, nil
}

// PaymentIntent retrieves a payment intent by ID
func (*Client) PaymentIntent(id string) (*stripeapi.PaymentIntent, error) {
	params := &stripeapi.PaymentIntentParams{}
	intent, err := stripepaymentintent.Get(id, params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to get payment intent", err)
	}
	return intent, nil
}

// InvoiceByPaymentIntent retrieves the invoice settled by the given payment
// intent, if any.
func (*Client) InvoiceByPaymentIntent(paymentIntentID string) (*stripeapi.Invoice, error) {
	params := &stripeapi.InvoicePaymentListParams{
		Payment: &stripeapi.InvoicePaymentListPaymentParams{
			PaymentIntent: stripeapi.String(paymentIntentID),
			Type:          stripeapi.String("payment_intent"),
		},
	}
	params.AddExpand("data.invoice")

	payments := stripeinvoicepayment.List(params)
	if !payments.Next() {
		if err := payments.Err(); err != nil {
			return nil, NewStripeError("api_call_failed", "failed to list invoice payments", err)
		}
		return nil, NewStripeError("api_call_failed",
			fmt.Sprintf("no invoice found for payment intent %s", paymentIntentID), nil)
	}
	return payments.InvoicePayment().Invoice, nil
}

// Subscription retrieves a subscription by ID
func (*Client) Subscription(id string) (*stripeapi.Subscription, error) {
	params := &stripeapi.SubscriptionParams{}
	sub, err := stripesubscription.Get(id, params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to get subscription", err)
	}
	return sub, nil
}

// Customer retrieves a customer by ID
func (*Client) Customer(id string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerParams{}
	customer, err := stripecustomer.Get(id, params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to get customer", err)
	}
	return customer, nil
}

// CreateCheckoutSession creates a new checkout session against the vendor.
// Overview of stripe checkout mechanics: https://docs.stripe.com/checkout/custom/quickstart
// API description https://docs.stripe.com/api/checkout/sessions
func (*Client) CreateCheckoutSession(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	session, err := stripecheckoutsession.New(params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to create checkout session", err)
	}
	return session, nil
}

// CheckoutSessions retrieves one page of checkout sessions created after the
// given time, starting after the given session ID when provided.
func (*Client) CheckoutSessions(createdAfter time.Time, startingAfter string) ([]*stripeapi.CheckoutSession, bool, error) {
	params := &stripeapi.CheckoutSessionListParams{
		CreatedRange: &stripeapi.RangeQueryParams{
			GreaterThanOrEqual: createdAfter.Unix(),
		},
	}
	params.Limit = stripeapi.Int64(100)
	params.Single = true
	if startingAfter != "" {
		params.StartingAfter = stripeapi.String(startingAfter)
	}

	var sessions []*stripeapi.CheckoutSession
	i := stripecheckoutsession.List(params)
	for i.Next() {
		sessions = append(sessions, i.CheckoutSession())
	}
	if err := i.Err(); err != nil {
		return nil, false, NewStripeError("api_call_failed", "failed to list checkout sessions", err)
	}
	return sessions, i.CheckoutSessionList().ListMeta.HasMore, nil
}
