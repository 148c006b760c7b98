package stripe

import (
	"fmt"
	"os"
)

// Config holds the complete payment vendor configuration. It acts as the
// settings provider of the integration: API keys, the webhook signing secret
// and the redirect URL templates used by checkout sessions.
type Config struct {
	APIKey         string `yaml:"api_key" json:"api_key"`
	PublishableKey string `yaml:"publishable_key" json:"publishable_key"`
	WebhookSecret  string `yaml:"webhook_secret" json:"webhook_secret"`
	SuccessURL     string `yaml:"success_url" json:"success_url"`
	CancelURL      string `yaml:"cancel_url" json:"cancel_url"`
}

// NewConfig creates a new Stripe configuration from environment variables
func NewConfig() (*Config, error) {
	apiKey := os.Getenv("FAS_STRIPESECRETKEY")
	if apiKey == "" {
		return nil, fmt.Errorf("FAS_STRIPESECRETKEY environment variable is required")
	}

	webhookSecret := os.Getenv("FAS_STRIPEWEBHOOKKEY")
	if webhookSecret == "" {
		return nil, fmt.Errorf("FAS_STRIPEWEBHOOKKEY environment variable is required")
	}

	return &Config{
		APIKey:         apiKey,
		PublishableKey: os.Getenv("FAS_STRIPEPUBLISHABLEKEY"),
		WebhookSecret:  webhookSecret,
		SuccessURL:     getEnvOrDefault("FAS_PAYMENTSUCCESSURL", "https://localhost/payments/success"),
		CancelURL:      getEnvOrDefault("FAS_PAYMENTCANCELURL", "https://localhost/payments/cancel"),
	}, nil
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
