package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextPlanID internal method returns the next available plan ID. This method
// must be called with the keysLock held.
func (ms *MongoStorage) nextPlanID(ctx context.Context) (uint64, error) {
	var plan Plan
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	if err := ms.plans.FindOne(ctx, bson.M{}, opts).Decode(&plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return 1, nil
		}
		return 0, err
	}
	return plan.ID + 1, nil
}

// SetPlan method creates or updates the plan in the database. If the plan
// already exists, it updates the fields that have changed.
func (ms *MongoStorage) SetPlan(plan *Plan) (uint64, error) {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if !IsValidBillingPeriod(plan.BillingPeriod) {
		return 0, ErrInvalidData
	}
	nextID, err := ms.nextPlanID(ctx)
	if err != nil {
		return 0, err
	}
	if plan.ID > 0 {
		if plan.ID >= nextID {
			return 0, ErrInvalidData
		}
		updateDoc, err := dynamicUpdateDocument(plan, []string{"default"})
		if err != nil {
			return 0, err
		}
		if _, err := ms.plans.UpdateOne(ctx, bson.M{"_id": plan.ID}, updateDoc); err != nil {
			return 0, err
		}
	} else {
		plan.ID = nextID
		if _, err := ms.plans.InsertOne(ctx, plan); err != nil {
			return 0, err
		}
	}
	return plan.ID, nil
}

// Plan method returns the plan with the given ID. If the plan doesn't exist,
// it returns a specific error.
func (ms *MongoStorage) Plan(id uint64) (*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.plans.FindOne(ctx, bson.M{"_id": id})
	plan := &Plan{}
	if err := result.Decode(plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// DefaultPlan method returns the plan flagged as default, used when a company
// has no subscription yet.
func (ms *MongoStorage) DefaultPlan() (*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.plans.FindOne(ctx, bson.M{"default": true})
	plan := &Plan{}
	if err := result.Decode(plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Plans method returns all the plans in the database, sorted by ID.
func (ms *MongoStorage) Plans() ([]*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := ms.plans.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var plans []*Plan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// DelPlan method removes the plan with the given ID from the database.
func (ms *MongoStorage) DelPlan(id uint64) error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	_, err := ms.plans.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
