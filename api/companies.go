package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/errors"
	"go.vocdoni.io/dvote/log"
)

// createCompanyHandler handles the request to create a new company. The
// authenticated user becomes its admin and the company becomes the user's
// last used one.
func (a *API) createCompanyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	companyInfo := &CompanyInfo{}
	if err := json.NewDecoder(r.Body).Decode(companyInfo); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if companyInfo.Name == "" {
		errors.ErrMalformedBody.Withf("company name is empty").Write(w)
		return
	}
	company := &db.Company{
		ID:      uuid.NewString(),
		Name:    companyInfo.Name,
		Creator: user.Email,
		Country: companyInfo.Country,
		Active:  true,
	}
	if err := a.db.SetCompany(company); err != nil {
		log.Warnw("could not create company", "error", err)
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	// add the company to the user as admin and set it as the last used one
	user.Companies = append(user.Companies, db.CompanyMember{
		CompanyID: company.ID,
		Role:      db.AdminRole,
	})
	user.LastCompanyID = company.ID
	if _, err := a.db.SetUser(user); err != nil {
		log.Warnw("could not update user companies", "error", err)
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	httpWriteJSON(w, companyFromDB(company))
}

// companyInfoHandler handles the request to get a company information. Only
// members of the company can access it.
func (a *API) companyInfoHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	companyID := chi.URLParam(r, "companyID")
	if companyID == "" {
		errors.ErrMalformedURLParam.Withf("companyID is empty").Write(w)
		return
	}
	if _, ok := memberRole(user, companyID); !ok {
		errors.ErrUnauthorized.Withf("user is not a member of the company").Write(w)
		return
	}
	company, err := a.db.Company(companyID)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrCompanyNotFound.Write(w)
			return
		}
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	httpWriteJSON(w, companyFromDB(company))
}
