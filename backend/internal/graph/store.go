package graph

import (
	"context"
	"fmt"
)

// Store holds one graph per user. Implementations must be safe for
// concurrent use by request handlers.
type Store interface {
	// Get returns the graph stored for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (*Graph, error)

	// Put stores g as the complete graph for userID, replacing any
	// previously stored graph.
	Put(ctx context.Context, userID string, g *Graph) error

	// Delete removes the graph stored for userID, or returns
	// ErrNotFound when there is none.
	Delete(ctx context.Context, userID string) error

	// List returns the IDs of users that currently have a graph,
	// in lexical order.
	List(ctx context.Context) ([]string, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close(ctx context.Context) error
}

// Errors

type ErrNotFound struct {
	UserID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("no graph stored for user: %s", e.UserID)
}

type ErrInvalidGraph struct {
	Reason string
}

func (e ErrInvalidGraph) Error() string {
	return fmt.Sprintf("invalid graph: %s", e.Reason)
}
