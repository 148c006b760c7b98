package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/itbees/fas-billing/errors"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// authenticator is a middleware that validates the JWT token of the request
// and loads the authenticated user into the request context, so that it can
// be used by the next handlers.
func (a *API) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			errors.ErrUnauthorized.Write(w)
			return
		}
		if token == nil || jwt.Validate(token, jwt.WithRequiredClaim("userId")) != nil {
			errors.ErrUnauthorized.Withf("userId claim not found in JWT token").Write(w)
			return
		}
		userID, ok := claims["userId"].(string)
		if !ok {
			errors.ErrUnauthorized.Withf("malformed userId claim").Write(w)
			return
		}
		user, err := a.db.UserByEmail(userID)
		if err != nil {
			errors.ErrUnauthorized.Withf("user not found").Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		// Token is authenticated, pass it through with the user in context
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
