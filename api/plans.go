package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/errors"
)

// plansHandler handles the request to list the available subscription plans.
func (a *API) plansHandler(w http.ResponseWriter, _ *http.Request) {
	plans, err := a.db.Plans()
	if err != nil {
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	httpWriteJSON(w, plans)
}

// planInfoHandler handles the request to get the information of a plan.
func (a *API) planInfoHandler(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseUint(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		errors.ErrMalformedURLParam.Withf("invalid planID").Write(w)
		return
	}
	plan, err := a.db.Plan(planID)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrPlanNotFound.Write(w)
			return
		}
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	httpWriteJSON(w, plan)
}
