package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/itbees/fas-billing/test"
)

var testDB *MongoStorage

// Common test constants
const (
	testDBUserEmail = "user@email.test"
	testDBUserPass  = "password"
	testDBFirstName = "Test"
	testDBLastName  = "User"
	testCompanyID   = "5f6c2c4e-8f0a-4e6b-9f6e-0a1b2c3d4e5f"
	testCompanyName = "Test Company"
	testVendorSubID = "sub_test123"
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	// start a MongoDB container for testing
	dbContainer, err := test.StartMongoContainer(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start MongoDB container: %v", err))
	}

	// get the MongoDB connection string
	mongoURI, err := dbContainer.Endpoint(ctx, "mongodb")
	if err != nil {
		panic(fmt.Sprintf("failed to get MongoDB endpoint: %v", err))
	}

	testDB, err = New(mongoURI, test.RandomDatabaseName())
	if err != nil {
		panic(fmt.Sprintf("failed to create new MongoDB connection: %v", err))
	}

	code := m.Run()

	// close the database connection
	testDB.Close()

	// stop the MongoDB container
	if err := dbContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop MongoDB container: %v", err))
	}

	os.Exit(code)
}
