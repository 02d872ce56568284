package graph

import (
	"context"
	"errors"
	"time"
)

// Client is the contract the repositories use to talk to a Cypher-speaking
// graph database. Each Execute call runs in its own transaction.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds every record returned by a statement.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// MaxRetryTime bounds how long the driver retries a transaction that
	// failed with a transient error. Zero keeps the driver default.
	MaxRetryTime time.Duration
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
