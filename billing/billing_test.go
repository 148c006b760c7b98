package billing

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/itbees/fas-billing/db"
)

type fakeStore struct {
	companies     map[string]*db.Company
	subscriptions map[string]*db.CompanySubscription
	plans         map[uint64]*db.Plan
	invoices      map[string]*db.Invoice
	sessions      map[string]*db.PaymentSession
	lastSession   *db.PaymentSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies:     make(map[string]*db.Company),
		subscriptions: make(map[string]*db.CompanySubscription),
		plans:         make(map[uint64]*db.Plan),
		invoices:      make(map[string]*db.Invoice),
		sessions:      make(map[string]*db.PaymentSession),
	}
}

func (s *fakeStore) Company(id string) (*db.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return company, nil
}

func (s *fakeStore) SetCompanySubscription(companyID string, subscription *db.CompanySubscription) error {
	if _, ok := s.companies[companyID]; !ok {
		return db.ErrNotFound
	}
	s.subscriptions[companyID] = subscription
	s.companies[companyID].Subscription = *subscription
	return nil
}

func (s *fakeStore) Plan(id uint64) (*db.Plan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return plan, nil
}

func (s *fakeStore) SetInvoice(invoice *db.Invoice) (string, error) {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	stored := *invoice
	s.invoices[invoice.ID] = &stored
	return invoice.ID, nil
}

func (s *fakeStore) LastInvoiceByCompany(companyID string) (*db.Invoice, error) {
	var last *db.Invoice
	for _, invoice := range s.invoices {
		if invoice.CompanyID != companyID || invoice.Corrective {
			continue
		}
		if last == nil || invoice.IssuedAt.After(last.IssuedAt) {
			last = invoice
		}
	}
	if last == nil {
		return nil, db.ErrNotFound
	}
	return last, nil
}

func (s *fakeStore) PaymentSession(id string) (*db.PaymentSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return session, nil
}

func (s *fakeStore) SetPaymentSession(session *db.PaymentSession) (string, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	s.sessions[session.ID] = session
	return session.ID, nil
}

func (s *fakeStore) LastPaymentSessionByCompany(string) (*db.PaymentSession, error) {
	if s.lastSession == nil {
		return nil, db.ErrNotFound
	}
	return s.lastSession, nil
}

func seedStore(store *fakeStore) (*db.Company, *db.Plan) {
	plan := &db.Plan{
		ID:            1,
		Name:          "Starter",
		Price:         1000,
		Currency:      "eur",
		BillingPeriod: db.BillingPeriodMonthly,
	}
	store.plans[plan.ID] = plan
	company := &db.Company{
		ID:      "company-1",
		Name:    "ACME",
		Creator: "owner@example.com",
		Active:  true,
	}
	store.companies[company.ID] = company
	return company, plan
}

func TestCloseSuccessfulPayment(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	service := New(store, nil)

	correlationID := uuid.NewString()
	store.sessions[correlationID] = &db.PaymentSession{
		ID:        correlationID,
		CompanyID: company.ID,
		PlanID:    plan.ID,
		Status:    db.PaymentSessionOpen,
	}

	completedAt := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	err := service.CloseSuccessfulPayment(correlationID, completedAt, "sub_1", "evt_1")
	c.Assert(err, qt.IsNil)

	session := store.sessions[correlationID]
	c.Assert(session.Status, qt.Equals, db.PaymentSessionPaid)
	c.Assert(session.CompletedAt, qt.Equals, completedAt)
	c.Assert(session.VendorSubscriptionID, qt.Equals, "sub_1")
	c.Assert(session.EventID, qt.Equals, "evt_1")

	subscription := store.subscriptions[company.ID]
	c.Assert(subscription, qt.IsNotNil)
	c.Assert(subscription.Active, qt.IsTrue)
	c.Assert(subscription.PlanID, qt.Equals, plan.ID)
	c.Assert(subscription.VendorSubscriptionID, qt.Equals, "sub_1")
	c.Assert(subscription.RenewalDate, qt.Equals, completedAt.AddDate(0, 1, 0))
}

func TestCloseSuccessfulPaymentUnknownSession(t *testing.T) {
	c := qt.New(t)
	service := New(newFakeStore(), nil)

	err := service.CloseSuccessfulPayment(uuid.NewString(), time.Now(), "", "evt_1")
	c.Assert(err, qt.ErrorIs, db.ErrNotFound)
}

func TestApplyPlanExtendsSubscription(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	company.Subscription = db.CompanySubscription{
		PlanID:               plan.ID,
		VendorSubscriptionID: "sub_1",
		StartDate:            start,
		Active:               true,
	}
	service := New(store, nil)

	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	c.Assert(service.ApplyPlan(plan, company.ID, from), qt.IsNil)

	subscription := store.subscriptions[company.ID]
	c.Assert(subscription.LastPaymentDate, qt.Equals, from)
	c.Assert(subscription.RenewalDate, qt.Equals, from.AddDate(0, 1, 0))
	c.Assert(subscription.Active, qt.IsTrue)
	// the original start date is preserved
	c.Assert(subscription.StartDate, qt.Equals, start)
	c.Assert(subscription.VendorSubscriptionID, qt.Equals, "sub_1")
}

func TestRevokeSubscription(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	company.Subscription = db.CompanySubscription{
		PlanID:               plan.ID,
		VendorSubscriptionID: "sub_1",
		Active:               true,
	}
	service := New(store, nil)

	c.Assert(service.RevokeSubscription(company.ID), qt.IsNil)

	subscription := store.subscriptions[company.ID]
	c.Assert(subscription.Active, qt.IsFalse)
	c.Assert(subscription.VendorSubscriptionID, qt.Equals, "")
	// the plan reference is kept for support purposes
	c.Assert(subscription.PlanID, qt.Equals, plan.ID)
}

func TestCreateRenewalInvoiceBasedOnLast(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	service := New(store, nil)

	lastID, err := store.SetInvoice(&db.Invoice{
		CompanyID: company.ID,
		PlanID:    plan.ID,
		Amount:    1200,
		Currency:  "usd",
		IssuedAt:  time.Now().AddDate(0, -1, 0),
	})
	c.Assert(err, qt.IsNil)

	invoice, err := service.CreateRenewalInvoice(company, plan)
	c.Assert(err, qt.IsNil)
	c.Assert(invoice.Amount, qt.Equals, int64(1200))
	c.Assert(invoice.Currency, qt.Equals, "usd")
	c.Assert(invoice.BasedOnInvoiceID, qt.Equals, lastID)
	c.Assert(invoice.CreatedBy, qt.Equals, "renewal")
	c.Assert(invoice.Number, qt.Contains, "INV-")
	c.Assert(store.invoices[invoice.ID].Number, qt.Equals, invoice.Number)
}

func TestCreateRenewalInvoiceWithoutHistory(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	service := New(store, nil)

	invoice, err := service.CreateRenewalInvoice(company, plan)
	c.Assert(err, qt.IsNil)
	// no previous invoice, the plan price is billed
	c.Assert(invoice.Amount, qt.Equals, plan.Price)
	c.Assert(invoice.Currency, qt.Equals, plan.Currency)
	c.Assert(invoice.BasedOnInvoiceID, qt.Equals, "")
}

func TestCreateCorrectiveInvoice(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	service := New(store, nil)

	lastID, err := store.SetInvoice(&db.Invoice{
		CompanyID: company.ID,
		PlanID:    plan.ID,
		Amount:    1000,
		Currency:  "eur",
		IssuedAt:  time.Now().AddDate(0, -1, 0),
	})
	c.Assert(err, qt.IsNil)

	c.Assert(service.CreateCorrectiveInvoice(company.ID, 1000, "sub_1"), qt.IsNil)

	var corrective *db.Invoice
	for _, invoice := range store.invoices {
		if invoice.Corrective {
			corrective = invoice
		}
	}
	c.Assert(corrective, qt.IsNotNil)
	c.Assert(corrective.Amount, qt.Equals, int64(-1000))
	c.Assert(corrective.Currency, qt.Equals, "eur")
	c.Assert(corrective.VendorSubscriptionID, qt.Equals, "sub_1")
	c.Assert(corrective.BasedOnInvoiceID, qt.Equals, lastID)
	c.Assert(corrective.CreatedBy, qt.Equals, "refund")
}

func TestCreateCorrectiveInvoiceForLastSession(t *testing.T) {
	c := qt.New(t)
	store := newFakeStore()
	company, plan := seedStore(store)
	service := New(store, nil)

	store.lastSession = &db.PaymentSession{
		ID:                   uuid.NewString(),
		CompanyID:            company.ID,
		PlanID:               plan.ID,
		VendorSubscriptionID: "sub_1",
		InvoiceID:            "inv-previous",
		Status:               db.PaymentSessionPaid,
	}

	c.Assert(service.CreateCorrectiveInvoiceForLastSession(company.ID, 500), qt.IsNil)

	var corrective *db.Invoice
	for _, invoice := range store.invoices {
		if invoice.Corrective {
			corrective = invoice
		}
	}
	c.Assert(corrective, qt.IsNotNil)
	c.Assert(corrective.Amount, qt.Equals, int64(-500))
	c.Assert(corrective.PlanID, qt.Equals, plan.ID)
	c.Assert(corrective.BasedOnInvoiceID, qt.Equals, "inv-previous")

	// without a paid session the corrective invoice cannot be issued
	store.lastSession = nil
	c.Assert(service.CreateCorrectiveInvoiceForLastSession(company.ID, 500), qt.ErrorIs, db.ErrNotFound)
}

func TestNextRenewal(t *testing.T) {
	c := qt.New(t)
	from := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		plan     db.Plan
		expected time.Time
	}{
		{db.Plan{BillingPeriod: db.BillingPeriodDaily}, from.AddDate(0, 0, 1)},
		{db.Plan{BillingPeriod: db.BillingPeriodWeekly}, from.AddDate(0, 0, 7)},
		{db.Plan{BillingPeriod: db.BillingPeriodMonthly}, from.AddDate(0, 1, 0)},
		{db.Plan{BillingPeriod: db.BillingPeriodEvery3Months}, from.AddDate(0, 3, 0)},
		{db.Plan{BillingPeriod: db.BillingPeriodEvery6Months}, from.AddDate(0, 6, 0)},
		{db.Plan{BillingPeriod: db.BillingPeriodYearly}, from.AddDate(1, 0, 0)},
		{db.Plan{BillingPeriod: db.BillingPeriodCustom, CustomInterval: "week", CustomIntervalCount: 2}, from.AddDate(0, 0, 14)},
		{db.Plan{BillingPeriod: db.BillingPeriodCustom, CustomInterval: "day"}, from.AddDate(0, 0, 1)},
	}
	for _, test := range tests {
		plan := test.plan
		c.Assert(nextRenewal(from, &plan), qt.Equals, test.expected, qt.Commentf("period %q", plan.BillingPeriod))
	}
}
