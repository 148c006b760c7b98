// Package test provides testing utilities for the billing backend, including
// test containers for the MongoDB storage and the mail service.
package test

import (
	"context"
	"fmt"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MongoPort is the port exposed by the MongoDB test container.
const MongoPort = "27017"

// StartMongoContainer starts a MongoDB container for testing the storage
// layer. It returns the container and any error encountered during startup.
func StartMongoContainer(ctx context.Context) (testcontainers.Container, error) {
	mongoPort := fmt.Sprintf("%s/tcp", MongoPort)
	return testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:7",
				ExposedPorts: []string{mongoPort},
				WaitingFor:   wait.ForListeningPort(nat.Port(mongoPort)),
			},
			Started: true,
		})
}

// RandomDatabaseName returns a random database name so that concurrent test
// packages don't step on each other's data.
func RandomDatabaseName() string {
	return fmt.Sprintf("billingtest%s", uuid.New().String()[:8])
}
