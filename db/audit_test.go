package db

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAddWebhookAudit(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// entries get sequential IDs and a reception date
	entry := &WebhookAudit{
		EventID:  "evt_1",
		Event:    "checkout.session.completed",
		Operator: "webhook",
		Payload:  `{"id":"evt_1"}`,
	}
	id, err := testDB.AddWebhookAudit(entry)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, uint64(1))
	c.Assert(entry.Received.IsZero(), qt.IsFalse)
	id, err = testDB.AddWebhookAudit(&WebhookAudit{
		EventID:  "evt_2",
		Event:    "invoice.payment_succeeded",
		Operator: "webhook",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, uint64(2))
}

func TestWebhookAuditByEventID(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// redelivered events share the event ID, each delivery gets its own entry
	for i := 0; i < 2; i++ {
		_, err := testDB.AddWebhookAudit(&WebhookAudit{
			EventID:  "evt_1",
			Event:    "charge.refunded",
			Operator: "webhook",
		})
		c.Assert(err, qt.IsNil)
	}
	_, err := testDB.AddWebhookAudit(&WebhookAudit{
		EventID:  "evt_2",
		Event:    "charge.succeeded",
		Operator: "webhook",
	})
	c.Assert(err, qt.IsNil)
	entries, err := testDB.WebhookAuditByEventID("evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 2)
	// oldest first
	c.Assert(entries[0].ID < entries[1].ID, qt.IsTrue)
}
