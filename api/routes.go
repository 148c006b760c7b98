package api

const (
	// auth routes

	// POST /auth/refresh to refresh the JWT token
	authRefreshTokenEndpoint = "/auth/refresh"
	// POST /auth/login to login and get a JWT token
	authLoginEndpoint = "/auth/login"

	// user routes

	// POST /users to register a new user
	usersEndpoint = "/users"
	// GET /users/me to get the current user information
	usersMeEndpoint = "/users/me"

	// company routes

	// POST /companies to create a new company
	companiesEndpoint = "/companies"
	// GET /companies/{companyID} to get a company information
	companyEndpoint = "/companies/{companyID}"

	// plan routes

	// GET /plans to list the available plans
	plansEndpoint = "/plans"
	// GET /plans/{planID} to get a plan information
	planInfoEndpoint = "/plans/{planID}"

	// payment routes

	// POST /payments/checkout to open a checkout session
	paymentsCheckoutEndpoint = "/payments/checkout"
	// GET /payments/checkout/{sessionID} to get a checkout session status
	paymentsCheckoutSessionEndpoint = "/payments/checkout/{sessionID}"
	// POST /payments/webhook to receive payment vendor events
	paymentsWebhookEndpoint = "/payments/webhook"

	// GET /ping to check the server status
	pingEndpoint = "/ping"
)
