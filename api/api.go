// Package api provides the HTTP API of the billing backend: authentication,
// user and company management, plan listing, checkout sessions and the
// payment vendor webhook endpoint.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/notifications"
	"github.com/itbees/fas-billing/stripe"
	"go.vocdoni.io/dvote/log"
)

const (
	jwtExpiration = 360 * time.Hour // 15 days
	passwordSalt  = "fasbilling365" // salt for password hashing
)

// Config holds the dependencies of the API server.
type Config struct {
	Host        string
	Port        int
	Secret      string
	DB          *db.MongoStorage
	MailService notifications.NotificationService
	Stripe      *stripe.Service
}

// API type represents the API HTTP server with JWT authentication capabilities.
type API struct {
	db     *db.MongoStorage
	auth   *jwtauth.JWTAuth
	host   string
	port   int
	router *chi.Mux
	mail   notifications.NotificationService
	stripe *stripe.Service
	secret string
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	return &API{
		db:     conf.DB,
		auth:   jwtauth.New("HS256", []byte(conf.Secret), nil),
		host:   conf.Host,
		port:   conf.Port,
		mail:   conf.MailService,
		stripe: conf.Stripe,
		secret: conf.Secret,
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	// protected routes
	r.Group(func(r chi.Router) {
		// seek, verify and validate JWT tokens
		r.Use(jwtauth.Verifier(a.auth))
		// handle valid JWT tokens
		r.Use(a.authenticator)
		// refresh the token
		log.Infow("new route", "method", "POST", "path", authRefreshTokenEndpoint)
		r.Post(authRefreshTokenEndpoint, a.refreshTokenHandler)
		// get user information
		log.Infow("new route", "method", "GET", "path", usersMeEndpoint)
		r.Get(usersMeEndpoint, a.userInfoHandler)
		// create a company
		log.Infow("new route", "method", "POST", "path", companiesEndpoint)
		r.Post(companiesEndpoint, a.createCompanyHandler)
		// get company information
		log.Infow("new route", "method", "GET", "path", companyEndpoint)
		r.Get(companyEndpoint, a.companyInfoHandler)
		// open a checkout session
		log.Infow("new route", "method", "POST", "path", paymentsCheckoutEndpoint)
		r.Post(paymentsCheckoutEndpoint, a.createCheckoutHandler)
		// get checkout session status
		log.Infow("new route", "method", "GET", "path", paymentsCheckoutSessionEndpoint)
		r.Get(paymentsCheckoutSessionEndpoint, a.checkoutSessionHandler)
	})

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
			if _, err := w.Write([]byte(".")); err != nil {
				log.Warnw("failed to write ping response", "error", err)
			}
		})
		// login
		log.Infow("new route", "method", "POST", "path", authLoginEndpoint)
		r.Post(authLoginEndpoint, a.authLoginHandler)
		// register user
		log.Infow("new route", "method", "POST", "path", usersEndpoint)
		r.Post(usersEndpoint, a.registerHandler)
		// get plans
		log.Infow("new route", "method", "GET", "path", plansEndpoint)
		r.Get(plansEndpoint, a.plansHandler)
		// get plan info
		log.Infow("new route", "method", "GET", "path", planInfoEndpoint)
		r.Get(planInfoEndpoint, a.planInfoHandler)
		// handle payment vendor webhook
		log.Infow("new route", "method", "POST", "path", paymentsWebhookEndpoint)
		r.Post(paymentsWebhookEndpoint, a.handleWebhook)
	})
	a.router = r
	return r
}
