package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetInvoice method creates or updates the invoice in the database. A missing
// ID gets a fresh one assigned.
func (ms *MongoStorage) SetInvoice(invoice *Invoice) (string, error) {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if invoice.CompanyID == "" {
		return "", ErrInvalidData
	}
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = time.Now()
	}
	updateDoc, err := dynamicUpdateDocument(invoice, []string{"corrective", "requested"})
	if err != nil {
		return "", err
	}
	opts := options.Update().SetUpsert(true)
	if _, err := ms.invoices.UpdateOne(ctx, bson.M{"_id": invoice.ID}, updateDoc, opts); err != nil {
		return "", err
	}
	return invoice.ID, nil
}

// Invoice method returns the invoice with the given ID. If the invoice doesn't
// exist, it returns a specific error.
func (ms *MongoStorage) Invoice(id string) (*Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.invoices.FindOne(ctx, bson.M{"_id": id})
	invoice := &Invoice{}
	if err := result.Decode(invoice); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// LastInvoiceByCompany method returns the most recently issued non corrective
// invoice of the company. Renewal invoices are based on it.
func (ms *MongoStorage) LastInvoiceByCompany(companyID string) (*Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "issuedAt", Value: -1}})
	filter := bson.M{"companyID": companyID, "corrective": false}
	result := ms.invoices.FindOne(ctx, filter, opts)
	invoice := &Invoice{}
	if err := result.Decode(invoice); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// InvoicesByCompany method returns all the invoices of the company, newest
// first.
func (ms *MongoStorage) InvoicesByCompany(companyID string) ([]*Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "issuedAt", Value: -1}})
	cursor, err := ms.invoices.Find(ctx, bson.M{"companyID": companyID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var invoices []*Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}
