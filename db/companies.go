package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Company method returns the company with the given ID. If the company
// doesn't exist, it returns a specific error.
func (ms *MongoStorage) Company(id string) (*Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.companies.FindOne(ctx, bson.M{"_id": id})
	company := &Company{}
	if err := result.Decode(company); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

// CompanyByVendorSubscriptionID method returns the company whose subscription
// is tied to the given payment vendor subscription id.
func (ms *MongoStorage) CompanyByVendorSubscriptionID(subscriptionID string) (*Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.companies.FindOne(ctx, bson.M{"subscription.vendorSubscriptionID": subscriptionID})
	company := &Company{}
	if err := result.Decode(company); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

// SetCompany method creates or updates the company in the database. If the
// company already exists, it updates the fields that have changed.
func (ms *MongoStorage) SetCompany(company *Company) error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if company.ID == "" {
		return ErrInvalidData
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now()
	}
	updateDoc, err := dynamicUpdateDocument(company, []string{"active"})
	if err != nil {
		return err
	}
	opts := options.Update().SetUpsert(true)
	if _, err := ms.companies.UpdateOne(ctx, bson.M{"_id": company.ID}, updateDoc, opts); err != nil {
		return err
	}
	return nil
}

// SetCompanySubscription method replaces the subscription of the company with
// the given ID.
func (ms *MongoStorage) SetCompanySubscription(companyID string, subscription *CompanySubscription) error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	updateDoc := bson.M{"$set": bson.M{"subscription": subscription}}
	result, err := ms.companies.UpdateOne(ctx, bson.M{"_id": companyID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DelCompany method removes the company with the given ID from the database.
func (ms *MongoStorage) DelCompany(id string) error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	_, err := ms.companies.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
