package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextWebhookAuditID internal method returns the next available audit entry
// ID. This method must be called with the keysLock held.
func (ms *MongoStorage) nextWebhookAuditID(ctx context.Context) (uint64, error) {
	var entry WebhookAudit
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	if err := ms.webhookAudit.FindOne(ctx, bson.M{}, opts).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return 1, nil
		}
		return 0, err
	}
	return entry.ID + 1, nil
}

// AddWebhookAudit method appends a new audit entry. Every received webhook
// delivery gets one, raw payload included.
func (ms *MongoStorage) AddWebhookAudit(entry *WebhookAudit) (uint64, error) {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	nextID, err := ms.nextWebhookAuditID(ctx)
	if err != nil {
		return 0, err
	}
	entry.ID = nextID
	if entry.Received.IsZero() {
		entry.Received = time.Now()
	}
	if _, err := ms.webhookAudit.InsertOne(ctx, entry); err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// WebhookAuditByEventID method returns the audit entries recorded for the
// given vendor event ID, oldest first.
func (ms *MongoStorage) WebhookAuditByEventID(eventID string) ([]*WebhookAudit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := ms.webhookAudit.Find(ctx, bson.M{"eventID": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var entries []*WebhookAudit
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
