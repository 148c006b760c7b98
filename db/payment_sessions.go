package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetPaymentSession method creates or updates the payment session in the
// database. A missing ID gets a fresh correlation GUID assigned.
func (ms *MongoStorage) SetPaymentSession(session *PaymentSession) (string, error) {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.Status == "" {
		session.Status = PaymentSessionOpen
	}
	updateDoc, err := dynamicUpdateDocument(session, []string{"renewal"})
	if err != nil {
		return "", err
	}
	opts := options.Update().SetUpsert(true)
	if _, err := ms.paymentSessions.UpdateOne(ctx, bson.M{"_id": session.ID}, updateDoc, opts); err != nil {
		return "", err
	}
	return session.ID, nil
}

// PaymentSession method returns the payment session with the given correlation
// GUID. If the session doesn't exist, it returns a specific error.
func (ms *MongoStorage) PaymentSession(id string) (*PaymentSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidData
	}
	result := ms.paymentSessions.FindOne(ctx, bson.M{"_id": id})
	session := &PaymentSession{}
	if err := result.Decode(session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

// LastPaymentSessionByCompany method returns the most recent paid session of
// the company, used to build corrective invoices when the refund carries no
// subscription reference.
func (ms *MongoStorage) LastPaymentSessionByCompany(companyID string) (*PaymentSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	filter := bson.M{"companyID": companyID, "status": PaymentSessionPaid}
	result := ms.paymentSessions.FindOne(ctx, filter, opts)
	session := &PaymentSession{}
	if err := result.Decode(session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}
