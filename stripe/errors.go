package stripe

import (
	"fmt"
)

// StripeError represents a Stripe-specific error
type StripeError struct {
	Code    string
	Message string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// Common Stripe errors
var (
	ErrInvalidEvent         = &StripeError{Code: "invalid_event", Message: "invalid webhook event"}
	ErrCompanyNotFound      = &StripeError{Code: "company_not_found", Message: "company not found"}
	ErrUserNotFound         = &StripeError{Code: "user_not_found", Message: "user not found"}
	ErrPlanNotFound         = &StripeError{Code: "plan_not_found", Message: "subscription plan not found"}
	ErrCustomerNotFound     = &StripeError{Code: "customer_not_found", Message: "stripe customer not found"}
	ErrSessionNotFound      = &StripeError{Code: "session_not_found", Message: "payment session not found"}
	ErrInvalidConfiguration = &StripeError{Code: "invalid_configuration", Message: "invalid stripe configuration"}
	ErrAPICallFailed        = &StripeError{Code: "api_call_failed", Message: "stripe API call failed"}
	ErrWebhookValidation    = &StripeError{Code: "webhook_validation", Message: "webhook signature validation failed"}
)

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the StripeError code of err, or an empty string when err
// is not a StripeError.
func ErrorCode(err error) string {
	if stripeErr, ok := err.(*StripeError); ok {
		return stripeErr.Code
	}
	return ""
}
