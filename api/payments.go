package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/errors"
	"github.com/itbees/fas-billing/stripe"
	"go.vocdoni.io/dvote/log"
)

// maxWebhookBodyBytes bounds the webhook payload size.
const maxWebhookBodyBytes = int64(65536)

// handleWebhook receives the payment vendor event deliveries. The response
// status drives the vendor's redelivery: client errors on signature failures,
// success on reconciled events and on business errors that a redelivery
// cannot fix, server error otherwise.
func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		log.Errorf("stripe webhook: payment service not available")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	// Read and validate the request body
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("stripe webhook: error reading request body: %s", err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Get signature header
	signatureHeader := r.Header.Get("Stripe-Signature")
	if signatureHeader == "" {
		log.Errorf("stripe webhook: missing Stripe-Signature header")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Process the webhook event
	if err := a.stripe.HandleWebhookEvent(payload, signatureHeader); err != nil {
		log.Errorf("stripe webhook: failed to process event: %v", err)

		// Check if it's a validation error (client error) or server error
		switch stripe.ErrorCode(err) {
		case "webhook_validation", "invalid_event":
			w.WriteHeader(http.StatusBadRequest)
		case "company_not_found", "user_not_found", "plan_not_found", "session_not_found", "customer_not_found":
			// Business logic errors that a redelivery cannot fix
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	// Success
	w.WriteHeader(http.StatusOK)
}

// createCheckoutHandler opens a checkout session with the payment vendor for
// the given company and plan.
func (a *API) createCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	request := &CheckoutRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	role, member := memberRole(user, request.CompanyID)
	if !member || !db.HasWriteAccess(role) {
		errors.ErrUnauthorized.Withf("user cannot purchase for the company").Write(w)
		return
	}
	if _, err := a.db.Company(request.CompanyID); err != nil {
		if err == db.ErrNotFound {
			errors.ErrCompanyNotFound.Write(w)
			return
		}
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	plan, err := a.db.Plan(request.PlanID)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrPlanNotFound.Write(w)
			return
		}
		errors.ErrGenericInternalServerError.Write(w)
		return
	}

	created, err := a.stripe.Sessions().CreateSession(&stripe.Payment{
		CompanyID:           request.CompanyID,
		PlanID:              plan.ID,
		CustomerEmail:       user.Email,
		Currency:            plan.Currency,
		Products:            []stripe.Product{{Name: plan.Name, UnitAmount: plan.Price, Quantity: 1}},
		BillingPeriod:       plan.BillingPeriod,
		CustomInterval:      plan.CustomInterval,
		CustomIntervalCount: plan.CustomIntervalCount,
	}, request.OneTime, request.SuccessURL, request.CancelURL)
	if err != nil {
		log.Warnw("could not create checkout session",
			"company", request.CompanyID,
			"plan", request.PlanID,
			"error", err)
		errors.ErrVendorOperationFailed.Write(w)
		return
	}

	// remember the company the purchase was made for, used to correlate
	// vendor events that only carry the billing email
	user.LastCompanyID = request.CompanyID
	if _, err := a.db.SetUser(user); err != nil {
		log.Warnw("could not update user last company", "error", err)
	}
	httpWriteJSON(w, created)
}

// checkoutSessionHandler returns the status of a checkout session. When the
// internal record is still open, the vendor listing is consulted to confirm
// whether the payment went through.
func (a *API) checkoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	session, err := a.db.PaymentSession(sessionID)
	if err != nil {
		switch err {
		case db.ErrNotFound:
			errors.ErrPaymentSessionNotFound.Write(w)
		case db.ErrInvalidData:
			errors.ErrMalformedURLParam.Withf("invalid sessionID").Write(w)
		default:
			errors.ErrGenericInternalServerError.Write(w)
		}
		return
	}
	if _, member := memberRole(user, session.CompanyID); !member && session.CustomerEmail != user.Email {
		errors.ErrUnauthorized.Withf("session belongs to another user").Write(w)
		return
	}

	status := &CheckoutStatus{
		SessionID: session.ID,
		Status:    string(session.Status),
		Paid:      session.Status == db.PaymentSessionPaid,
	}
	if session.Status == db.PaymentSessionOpen {
		paid, err := a.stripe.Sessions().ConfirmPayment(session.ID)
		if err != nil {
			log.Warnw("could not confirm payment", "session", session.ID, "error", err)
			errors.ErrVendorOperationFailed.Write(w)
			return
		}
		status.Paid = paid
		if paid {
			status.Status = string(db.PaymentSessionPaid)
		}
	}
	httpWriteJSON(w, status)
}
