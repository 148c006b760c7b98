package stripe

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/itbees/fas-billing/db"
	stripeapi "github.com/stripe/stripe-go/v82"
)

func TestRecurringInterval(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		period   db.BillingPeriod
		custom   string
		count    int64
		interval string
		expected int64
		fails    bool
	}{
		{period: db.BillingPeriodDaily, interval: "day", expected: 1},
		{period: db.BillingPeriodWeekly, interval: "week", expected: 1},
		{period: db.BillingPeriodMonthly, interval: "month", expected: 1},
		{period: db.BillingPeriodEvery3Months, interval: "month", expected: 3},
		{period: db.BillingPeriodEvery6Months, interval: "month", expected: 6},
		{period: db.BillingPeriodYearly, interval: "year", expected: 1},
		{period: db.BillingPeriodCustom, custom: "week", count: 2, interval: "week", expected: 2},
		{period: db.BillingPeriodCustom, custom: "month", interval: "month", expected: 1},
		{period: db.BillingPeriodCustom, fails: true},
		{period: db.BillingPeriod("fortnightly"), fails: true},
	}
	for _, test := range tests {
		interval, count, err := recurringInterval(test.period, test.custom, test.count)
		if test.fails {
			c.Assert(err, qt.IsNotNil, qt.Commentf("period %q", test.period))
			c.Assert(ErrorCode(err), qt.Equals, "invalid_configuration")
			continue
		}
		c.Assert(err, qt.IsNil, qt.Commentf("period %q", test.period))
		c.Assert(interval, qt.Equals, test.interval)
		c.Assert(count, qt.Equals, test.expected)
	}
}

func TestCreateSessionPersistsOpenRecord(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	sessions := NewSessionService(newFakeVendor(), store, &Config{
		SuccessURL: "https://billing.example.com/success",
		CancelURL:  "https://billing.example.com/cancel",
	})

	created, err := sessions.CreateSession(&Payment{
		CompanyID:     "company-1",
		PlanID:        1,
		CustomerEmail: "owner@example.com",
		Currency:      "eur",
		Products:      []Product{{Name: "Starter", UnitAmount: 1000, Quantity: 1}},
		BillingPeriod: db.BillingPeriodMonthly,
	}, false, "", "")
	c.Assert(err, qt.IsNil)
	c.Assert(created.SessionID, qt.Not(qt.Equals), "")
	c.Assert(created.VendorSessionID, qt.Equals, "cs_fake")
	c.Assert(created.URL, qt.Not(qt.Equals), "")

	record, err := store.PaymentSession(created.SessionID)
	c.Assert(err, qt.IsNil)
	c.Assert(record.Status, qt.Equals, db.PaymentSessionOpen)
	c.Assert(record.CompanyID, qt.Equals, "company-1")
	c.Assert(record.PlanID, qt.Equals, uint64(1))
	c.Assert(record.CustomerEmail, qt.Equals, "owner@example.com")
	c.Assert(record.VendorSessionID, qt.Equals, "cs_fake")
}

func TestCreateSessionValidation(t *testing.T) {
	c := qt.New(t)
	sessions := NewSessionService(newFakeVendor(), newFakeStore(), &Config{})

	_, err := sessions.CreateSession(&Payment{Currency: "eur"}, false, "", "")
	c.Assert(err, qt.IsNotNil)
	c.Assert(ErrorCode(err), qt.Equals, "invalid_configuration")

	// recurring payment with an unknown period fails before the vendor call
	_, err = sessions.CreateSession(&Payment{
		Currency:      "eur",
		Products:      []Product{{Name: "Starter", UnitAmount: 1000}},
		BillingPeriod: db.BillingPeriod("bogus"),
	}, false, "", "")
	c.Assert(err, qt.IsNotNil)
	c.Assert(ErrorCode(err), qt.Equals, "invalid_configuration")
}

func TestConfirmPaymentPaginates(t *testing.T) {
	c := qt.New(t)
	vendor := newFakeVendor()
	sessions := NewSessionService(vendor, newFakeStore(), &Config{})

	correlationID := "0b9df3b4-18b9-4f85-9c8e-6e9fdd9f6c20"
	vendor.pages = [][]*stripeapi.CheckoutSession{
		{
			{ID: "cs_1", ClientReferenceID: "other"},
			{ID: "cs_2", ClientReferenceID: "another"},
		},
		{
			{ID: "cs_3", ClientReferenceID: correlationID, PaymentStatus: stripeapi.CheckoutSessionPaymentStatusPaid},
		},
	}

	paid, err := sessions.ConfirmPayment(correlationID)
	c.Assert(err, qt.IsNil)
	c.Assert(paid, qt.IsTrue)
	// the second page was requested with the last seen session as cursor
	c.Assert(vendor.pageCursors, qt.DeepEquals, []string{"", "cs_2"})
}

func TestConfirmPaymentUnpaidSession(t *testing.T) {
	c := qt.New(t)
	vendor := newFakeVendor()
	sessions := NewSessionService(vendor, newFakeStore(), &Config{})

	correlationID := "0b9df3b4-18b9-4f85-9c8e-6e9fdd9f6c20"
	vendor.pages = [][]*stripeapi.CheckoutSession{
		{
			{ID: "cs_1", ClientReferenceID: correlationID, PaymentStatus: stripeapi.CheckoutSessionPaymentStatusUnpaid},
		},
	}

	paid, err := sessions.ConfirmPayment(correlationID)
	c.Assert(err, qt.IsNil)
	c.Assert(paid, qt.IsFalse)
}

func TestConfirmPaymentExhaustsListing(t *testing.T) {
	c := qt.New(t)
	vendor := newFakeVendor()
	sessions := NewSessionService(vendor, newFakeStore(), &Config{})

	vendor.pages = [][]*stripeapi.CheckoutSession{
		{{ID: "cs_1", ClientReferenceID: "other"}},
	}

	paid, err := sessions.ConfirmPayment("0b9df3b4-18b9-4f85-9c8e-6e9fdd9f6c20")
	c.Assert(err, qt.IsNil)
	c.Assert(paid, qt.IsFalse)

	// a malformed correlation id never reaches the vendor
	_, err = sessions.ConfirmPayment("not-a-guid")
	c.Assert(err, qt.IsNotNil)
	c.Assert(ErrorCode(err), qt.Equals, "invalid_configuration")
}
