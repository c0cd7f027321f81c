// Package neo4j wraps the Neo4j driver with the connection policy for the
// identity store: one driver per process, bounded pool, explicit database.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	appconfig "authgate/internal/platform/config"
)

// Client wraps a Neo4j driver with health checking capabilities.
type Client struct {
	Driver    neo4j.DriverWithContext
	Database  string
	FetchSize int
}

// New creates a Neo4j client from the provided configuration.
// Returns nil if the URI is empty (graph store not configured).
func New(ctx context.Context, cfg appconfig.Neo4jConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, nil
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *config.Config) {
			c.MaxConnectionPoolSize = cfg.MaxPool
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}

	return &Client{
		Driver:    driver,
		Database:  cfg.Database,
		FetchSize: cfg.FetchSize,
	}, nil
}

// Session opens a session against the configured database.
func (c *Client) Session(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.Database,
		FetchSize:    c.FetchSize,
	})
}

// Health checks if the Neo4j connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Driver.VerifyConnectivity(ctx)
}

// Close releases the driver and its connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.Driver.Close(ctx)
}
