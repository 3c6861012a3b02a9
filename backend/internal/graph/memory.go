package graph

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps user graphs in process memory. It is the default
// backend and a stand-in for a real database: contents vanish when the
// process exits. Neo4jStore is the persistent replacement.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. Every call returns an
// independent store that shares nothing with previous ones.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		graphs: make(map[string]*Graph),
	}
}

// Get returns a copy of the stored graph so callers cannot mutate
// store internals through the result.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[userID]
	if !ok {
		return nil, ErrNotFound{UserID: userID}
	}
	return g.Clone(), nil
}

// Put stores a copy of g for userID. A nil graph is stored as empty.
func (s *MemoryStore) Put(_ context.Context, userID string, g *Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[userID] = g.Clone()
	return nil
}

// Delete removes userID's graph.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[userID]; !ok {
		return ErrNotFound{UserID: userID}
	}
	delete(s.graphs, userID)
	return nil
}

// List returns the user IDs that have a graph, sorted.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping always succeeds: memory is as reachable as the process itself.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

// Len reports how many users currently have a graph.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.graphs)
}
