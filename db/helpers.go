package db

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// defaultTimeout is the timeout used by the storage operations.
const defaultTimeout = 10 * time.Second

// initCollections creates the collections in the MongoDB database if they
// don't exist yet.
func (ms *MongoStorage) initCollections(database string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// get the current collections names to create only the missing ones
	currentCollections, err := ms.collectionNames(ctx, database)
	if err != nil {
		return err
	}
	// aux method to get a collection if it exists, or create it if it doesn't
	getCollection := func(name string) (*mongo.Collection, error) {
		alreadyCreated := false
		for _, c := range currentCollections {
			if c == name {
				alreadyCreated = true
				break
			}
		}
		if !alreadyCreated {
			if err := ms.client.Database(database).CreateCollection(ctx, name); err != nil {
				return nil, err
			}
		}
		return ms.client.Database(database).Collection(name), nil
	}
	// billing collections
	if ms.users, err = getCollection("users"); err != nil {
		return err
	}
	if ms.companies, err = getCollection("companies"); err != nil {
		return err
	}
	if ms.plans, err = getCollection("plans"); err != nil {
		return err
	}
	if ms.invoices, err = getCollection("invoices"); err != nil {
		return err
	}
	if ms.paymentSessions, err = getCollection("paymentSessions"); err != nil {
		return err
	}
	if ms.webhookAudit, err = getCollection("webhookAudit"); err != nil {
		return err
	}
	return nil
}

// collectionNames returns the names of the collections in the given database.
func (ms *MongoStorage) collectionNames(ctx context.Context, database string) ([]string, error) {
	collectionsCursor, err := ms.client.Database(database).ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := collectionsCursor.Close(ctx); err != nil {
			panic(err)
		}
	}()
	var collections []string
	for collectionsCursor.Next(ctx) {
		var collectionInfo struct {
			Name string `bson:"name"`
		}
		if err := collectionsCursor.Decode(&collectionInfo); err != nil {
			return nil, err
		}
		collections = append(collections, collectionInfo.Name)
	}
	return collections, nil
}

// createIndexes creates the indexes for the collections.
func (ms *MongoStorage) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// unique index on user email
	if _, err := ms.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create index on user email: %w", err)
	}
	// index on the vendor subscription id of the company subscription
	if _, err := ms.companies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subscription.vendorSubscriptionID", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on company subscription: %w", err)
	}
	// index on the company of the invoices and payment sessions
	if _, err := ms.invoices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "companyID", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on invoice company: %w", err)
	}
	if _, err := ms.paymentSessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "companyID", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on payment session company: %w", err)
	}
	// index on the event id of the audit entries
	if _, err := ms.webhookAudit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "eventID", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on webhook audit event id: %w", err)
	}
	return nil
}

// dynamicUpdateDocument creates a BSON update document from a struct,
// including only non-zero fields. It uses reflection to iterate over the
// struct fields and create the update document. The struct fields must have
// a bson tag to be included in the update document. The _id field is skipped.
func dynamicUpdateDocument(item interface{}, alwaysUpdateTags []string) (bson.M, error) {
	val := reflect.ValueOf(item)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input must be a valid struct")
	}
	update := bson.M{}
	typ := val.Type()
	// create a map for quick lookup
	alwaysUpdateMap := make(map[string]bool, len(alwaysUpdateTags))
	for _, tag := range alwaysUpdateTags {
		alwaysUpdateMap[tag] = true
	}
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanInterface() {
			continue
		}
		fieldType := typ.Field(i)
		tag := fieldType.Tag.Get("bson")
		if tag == "" || tag == "-" || tag == "_id" {
			continue
		}
		// check if the field should always be updated or is not the zero value
		_, alwaysUpdate := alwaysUpdateMap[tag]
		if alwaysUpdate || !reflect.DeepEqual(field.Interface(), reflect.Zero(field.Type()).Interface()) {
			update[tag] = field.Interface()
		}
	}
	return bson.M{"$set": update}, nil
}
