package db

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestCompany(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// test not found company
	company, err := testDB.Company(testCompanyID)
	c.Assert(company, qt.IsNil)
	c.Assert(err, qt.Equals, ErrNotFound)
	// a company without ID is rejected
	c.Assert(testDB.SetCompany(&Company{Name: testCompanyName}), qt.Equals, ErrInvalidData)
	// create a new company
	c.Assert(testDB.SetCompany(&Company{
		ID:      testCompanyID,
		Name:    testCompanyName,
		Creator: testDBUserEmail,
		Country: "PL",
		Active:  true,
	}), qt.IsNil)
	// test found company
	company, err = testDB.Company(testCompanyID)
	c.Assert(err, qt.IsNil)
	c.Assert(company.Name, qt.Equals, testCompanyName)
	c.Assert(company.Creator, qt.Equals, testDBUserEmail)
	c.Assert(company.Country, qt.Equals, "PL")
	c.Assert(company.Active, qt.IsTrue)
	c.Assert(company.CreatedAt.IsZero(), qt.IsFalse)
	// update the company
	company.Name = "Renamed Company"
	c.Assert(testDB.SetCompany(company), qt.IsNil)
	company, err = testDB.Company(testCompanyID)
	c.Assert(err, qt.IsNil)
	c.Assert(company.Name, qt.Equals, "Renamed Company")
}

func TestCompanyByVendorSubscriptionID(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// no company with the subscription yet
	_, err := testDB.CompanyByVendorSubscriptionID(testVendorSubID)
	c.Assert(err, qt.Equals, ErrNotFound)
	// create a company and attach a subscription
	c.Assert(testDB.SetCompany(&Company{
		ID:   testCompanyID,
		Name: testCompanyName,
	}), qt.IsNil)
	c.Assert(testDB.SetCompanySubscription(testCompanyID, &CompanySubscription{
		PlanID:               1,
		VendorSubscriptionID: testVendorSubID,
		StartDate:            time.Now(),
		Active:               true,
	}), qt.IsNil)
	// the company is found by its vendor subscription
	company, err := testDB.CompanyByVendorSubscriptionID(testVendorSubID)
	c.Assert(err, qt.IsNil)
	c.Assert(company.ID, qt.Equals, testCompanyID)
	c.Assert(company.Subscription.Active, qt.IsTrue)
}

func TestSetCompanySubscription(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// updating the subscription of a missing company fails
	err := testDB.SetCompanySubscription(testCompanyID, &CompanySubscription{PlanID: 1})
	c.Assert(err, qt.Equals, ErrNotFound)
	// create the company and set the subscription
	c.Assert(testDB.SetCompany(&Company{
		ID:   testCompanyID,
		Name: testCompanyName,
	}), qt.IsNil)
	renewal := time.Now().AddDate(0, 1, 0).Truncate(time.Millisecond).UTC()
	c.Assert(testDB.SetCompanySubscription(testCompanyID, &CompanySubscription{
		PlanID:               1,
		VendorSubscriptionID: testVendorSubID,
		RenewalDate:          renewal,
		Active:               true,
	}), qt.IsNil)
	company, err := testDB.Company(testCompanyID)
	c.Assert(err, qt.IsNil)
	c.Assert(company.Subscription.PlanID, qt.Equals, uint64(1))
	c.Assert(company.Subscription.RenewalDate.UnixMilli(), qt.Equals, renewal.UnixMilli())
	// revoking replaces the whole subscription document
	c.Assert(testDB.SetCompanySubscription(testCompanyID, &CompanySubscription{
		PlanID: 1,
		Active: false,
	}), qt.IsNil)
	company, err = testDB.Company(testCompanyID)
	c.Assert(err, qt.IsNil)
	c.Assert(company.Subscription.Active, qt.IsFalse)
	c.Assert(company.Subscription.VendorSubscriptionID, qt.Equals, "")
}

func TestDelCompany(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	c.Assert(testDB.SetCompany(&Company{
		ID:   testCompanyID,
		Name: testCompanyName,
	}), qt.IsNil)
	c.Assert(testDB.DelCompany(testCompanyID), qt.IsNil)
	_, err := testDB.Company(testCompanyID)
	c.Assert(err, qt.Equals, ErrNotFound)
}
