//go:build integration

package containers

import (
	"context"
	"testing"

	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"

	"authgate/internal/platform/config"
	platformneo4j "authgate/internal/platform/neo4j"
)

const neo4jAdminPassword = "integration-password"

// Neo4jContainer is a throwaway Neo4j instance for integration tests.
type Neo4jContainer struct {
	URI    string
	Client *platformneo4j.Client
}

// NewNeo4jContainer starts a Neo4j container and connects a driver to it.
// Everything is torn down via t.Cleanup.
func NewNeo4jContainer(t *testing.T) *Neo4jContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcneo4j.Run(ctx, "neo4j:5",
		tcneo4j.WithAdminPassword(neo4jAdminPassword),
	)
	if err != nil {
		t.Fatalf("failed to start neo4j container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.BoltUrl(ctx)
	if err != nil {
		t.Fatalf("failed to get bolt url: %v", err)
	}

	client, err := platformneo4j.New(ctx, config.Neo4jConfig{
		URI:       uri,
		User:      "neo4j",
		Password:  neo4jAdminPassword,
		Database:  "neo4j",
		FetchSize: 500,
		MaxPool:   10,
	})
	if err != nil {
		t.Fatalf("failed to connect to neo4j: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	return &Neo4jContainer{URI: uri, Client: client}
}

// Wipe deletes every node and relationship. Use between tests for isolation.
func (n *Neo4jContainer) Wipe(ctx context.Context) error {
	session := n.Client.Session(ctx)
	defer session.Close(ctx)
	_, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	return err
}
