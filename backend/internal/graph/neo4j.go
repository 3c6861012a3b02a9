package graph

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "graphpad/backend/pkg/errors"
	"graphpad/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jStore persists user graphs in Neo4j. It is the database the
// in-memory backend is a placeholder for: same Store interface, real
// durability. Node property maps are stored as JSON strings because
// Neo4j properties cannot hold nested values.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore creates a store backed by the given driver. The caller
// owns the driver and should have verified connectivity already.
func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{
		driver: driver,
		logger: logger.Get(),
	}
}

// Get retrieves the complete graph stored for a user
func (s *Neo4jStore) Get(ctx context.Context, userID string) (*Graph, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})
		OPTIONAL MATCH (u)-[:OWNS]->(n:GraphNode)
		WITH u, collect(DISTINCT {
			id: n.id,
			label: n.label,
			props: n.props_json
		}) as nodes
		OPTIONAL MATCH (u)-[:OWNS]->(a:GraphNode)-[e:CONNECTS]->(b:GraphNode)
		RETURN
			nodes,
			collect(DISTINCT {
				id: e.id,
				from: a.id,
				to: b.id,
				label: e.label
			}) as edges
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("get graph", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch record: %w", err)
		}
		return nil, ErrNotFound{UserID: userID}
	}

	record := result.Record()
	g := NewGraph()

	// Parse nodes
	nodes, _ := record.Get("nodes")
	if nodesList, ok := nodes.([]interface{}); ok {
		for _, item := range nodesList {
			if nodeMap, ok := item.(map[string]interface{}); ok {
				id := getStringFromMap(nodeMap, "id", "")
				if id == "" {
					continue
				}
				props, err := decodeProps(getStringFromMap(nodeMap, "props", ""))
				if err != nil {
					return nil, fmt.Errorf("failed to decode node properties: %w", err)
				}
				g.Nodes = append(g.Nodes, Node{
					ID:         id,
					Label:      getStringFromMap(nodeMap, "label", ""),
					Properties: props,
				})
			}
		}
	}

	// Parse edges
	edges, _ := record.Get("edges")
	if edgesList, ok := edges.([]interface{}); ok {
		for _, item := range edgesList {
			if edgeMap, ok := item.(map[string]interface{}); ok {
				from := getStringFromMap(edgeMap, "from", "")
				to := getStringFromMap(edgeMap, "to", "")
				if from == "" || to == "" {
					continue
				}
				g.Edges = append(g.Edges, Edge{
					ID:    getStringFromMap(edgeMap, "id", ""),
					From:  from,
					To:    to,
					Label: getStringFromMap(edgeMap, "label", ""),
				})
			}
		}
	}

	return g, nil
}

// Put replaces the stored graph for a user with g. The user node is
// created on first write.
func (s *Neo4jStore) Put(ctx context.Context, userID string, g *Graph) error {
	if g == nil {
		g = NewGraph()
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	nodes := make([]interface{}, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		props, err := encodeProps(n.Properties)
		if err != nil {
			return fmt.Errorf("failed to encode node properties: %w", err)
		}
		nodes = append(nodes, map[string]interface{}{
			"id":    n.ID,
			"label": n.Label,
			"props": props,
		})
	}
	edges := make([]interface{}, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, map[string]interface{}{
			"id":    e.ID,
			"from":  e.From,
			"to":    e.To,
			"label": e.Label,
		})
	}

	query := `
		MERGE (u:User {id: $userID})
		SET u.updated_at = datetime()
		WITH u
		OPTIONAL MATCH (u)-[:OWNS]->(old:GraphNode)
		DETACH DELETE old
		WITH DISTINCT u
		FOREACH (node IN $nodes |
			CREATE (u)-[:OWNS]->(:GraphNode {
				id: node.id,
				label: node.label,
				props_json: node.props
			})
		)
		WITH u
		UNWIND $edges as edge
		MATCH (u)-[:OWNS]->(a:GraphNode {id: edge.from})
		MATCH (u)-[:OWNS]->(b:GraphNode {id: edge.to})
		CREATE (a)-[:CONNECTS {id: edge.id, label: edge.label}]->(b)
		RETURN count(*) as created
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
		"nodes":  nodes,
		"edges":  edges,
	})
	if err != nil {
		return apperrors.NewStoreQueryFailed("put graph", err)
	}

	_, err = result.Single(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify graph write: %w", err)
	}

	s.logger.Info("Graph stored",
		zap.String("user_id", userID),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
	)
	return nil
}

// Delete removes a user and everything they own
func (s *Neo4jStore) Delete(ctx context.Context, userID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})
		OPTIONAL MATCH (u)-[:OWNS]->(n:GraphNode)
		DETACH DELETE u, n
		RETURN count(u) as removed
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return apperrors.NewStoreQueryFailed("delete graph", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify graph delete: %w", err)
	}
	if getInt64(record, "removed", 0) == 0 {
		return ErrNotFound{UserID: userID}
	}

	s.logger.Info("Graph deleted", zap.String("user_id", userID))
	return nil
}

// List returns the IDs of all users that have stored a graph
func (s *Neo4jStore) List(ctx context.Context) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		RETURN u.id as id
		ORDER BY id
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list users", err)
	}

	ids := []string{}
	for result.Next(ctx) {
		if id := getString(result.Record(), "id", ""); id != "" {
			ids = append(ids, id)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user list: %w", err)
	}

	return ids, nil
}

// Ping verifies connectivity to the database
func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close closes the underlying driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Helper functions

func encodeProps(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeProps(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, err
	}
	return props, nil
}

func getString(record *neo4j.Record, key string, defaultValue string) string {
	val, ok := record.Get(key)
	if !ok {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getInt64(record *neo4j.Record, key string, defaultValue int64) int64 {
	val, ok := record.Get(key)
	if !ok {
		return defaultValue
	}
	if n, ok := val.(int64); ok {
		return n
	}
	return defaultValue
}

func getStringFromMap(m map[string]interface{}, key string, defaultValue string) string {
	val, ok := m[key]
	if !ok {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}
