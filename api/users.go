package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/errors"
	"github.com/itbees/fas-billing/internal"
	"github.com/itbees/fas-billing/notifications"
	"go.vocdoni.io/dvote/log"
)

// registerHandler handles the register request. It creates a new user in the database.
func (a *API) registerHandler(w http.ResponseWriter, r *http.Request) {
	userInfo := &UserInfo{}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if err := json.Unmarshal(body, userInfo); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	// check the email is correct format
	if !internal.ValidEmail(userInfo.Email) {
		errors.ErrEmailMalformed.Write(w)
		return
	}
	// check the password is correct format
	if len(userInfo.Password) < 8 {
		errors.ErrPasswordTooShort.Write(w)
		return
	}
	// check the first name is not empty
	if userInfo.FirstName == "" {
		errors.ErrMalformedBody.Withf("first name is empty").Write(w)
		return
	}
	// check the last name is not empty
	if userInfo.LastName == "" {
		errors.ErrMalformedBody.Withf("last name is empty").Write(w)
		return
	}
	// add the user to the database
	if _, err := a.db.SetUser(&db.User{
		Email:     userInfo.Email,
		FirstName: userInfo.FirstName,
		LastName:  userInfo.LastName,
		Password:  hashPassword(userInfo.Password),
		Verified:  true,
	}); err != nil {
		log.Warnw("could not create user", "error", err)
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	// send a welcome email if the mail service is configured
	if a.mail != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := a.mail.SendNotification(ctx, &notifications.Notification{
			ToName:    userInfo.FirstName,
			ToAddress: userInfo.Email,
			Subject:   "Welcome to the billing service",
			PlainBody: fmt.Sprintf("Hello %s, your account has been created.", userInfo.FirstName),
			Body:      fmt.Sprintf("<p>Hello %s, your account has been created.</p>", userInfo.FirstName),
		}); err != nil {
			log.Warnw("could not send welcome email", "to", userInfo.Email, "error", err)
		}
	}
	httpWriteOK(w)
}

// userInfoHandler handles the request to get the information of the current
// authenticated user.
func (a *API) userInfoHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	// get the user companies information from the database if any
	userCompanies := make([]*UserCompany, 0)
	for _, member := range user.Companies {
		company, err := a.db.Company(member.CompanyID)
		if err != nil {
			if err == db.ErrNotFound {
				continue
			}
			errors.ErrGenericInternalServerError.Write(w)
			return
		}
		userCompanies = append(userCompanies, &UserCompany{
			Role:    string(member.Role),
			Company: companyFromDB(company),
		})
	}
	// return the user information
	httpWriteJSON(w, UserInfo{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Verified:  user.Verified,
		Companies: userCompanies,
	})
}
