package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"graphpad/backend/internal/graph"
	"graphpad/backend/pkg/config"
	"graphpad/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

func main() {
	userID := flag.String("user-id", "demo", "User to seed a graph for")
	force := flag.Bool("force", false, "Replace the graph even if one exists")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration. Seeding always talks to Neo4j directly, so
	// the neo4j settings must be present whatever GRAPH_STORE says.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	cfg.GraphStore = config.StoreNeo4j
	if err := cfg.Validate(); err != nil {
		log.Fatal("Seeding needs Neo4j settings", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	store := graph.NewNeo4jStore(driver)

	// Create constraints
	log.Info("Creating constraints...")
	if err := createConstraints(ctx, driver); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	// Create indexes for better performance
	log.Info("Creating indexes...")
	if err := createIndexes(ctx, driver); err != nil {
		log.Warn("Failed to create some indexes (may already exist)", zap.Error(err))
	}

	// Check if the user already has a graph
	existing, err := store.Get(ctx, *userID)
	if err == nil && !*force {
		log.Info("User already has a graph, skipping (use -force to replace)",
			zap.String("user_id", *userID),
			zap.Int("nodes", len(existing.Nodes)),
		)
		os.Exit(0)
	}

	// Store the demo graph
	log.Info("Seeding demo graph", zap.String("user_id", *userID))
	if err := store.Put(ctx, *userID, demoGraph()); err != nil {
		log.Fatal("Failed to store demo graph", zap.Error(err))
	}

	// Verify creation
	seeded, err := store.Get(ctx, *userID)
	if err != nil {
		log.Fatal("Failed to verify seeded graph", zap.Error(err))
	}

	log.Info("Graph seeded successfully",
		zap.String("user_id", *userID),
		zap.Int("nodes", len(seeded.Nodes)),
		zap.Int("edges", len(seeded.Edges)),
	)

	log.Info("Seed completed. The graph is ready to explore!")
}

// demoGraph is a small starter graph showing nodes, edges and properties
func demoGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "graphpad", Label: "Graphpad", Properties: map[string]any{"kind": "concept"}},
			{ID: "nodes", Label: "Nodes", Properties: map[string]any{"kind": "concept"}},
			{ID: "edges", Label: "Edges", Properties: map[string]any{"kind": "concept"}},
			{ID: "you", Label: "You", Properties: map[string]any{"kind": "person"}},
		},
		Edges: []graph.Edge{
			{ID: "e1", From: "graphpad", To: "nodes", Label: "contains"},
			{ID: "e2", From: "graphpad", To: "edges", Label: "contains"},
			{ID: "e3", From: "you", To: "graphpad", Label: "builds"},
		},
	}
}

// createConstraints creates Neo4j constraints for data integrity
func createConstraints(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		// One User node per user ID
		"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	}

	for _, constraint := range constraints {
		_, err := session.Run(ctx, constraint, nil)
		if err != nil {
			// Log but don't fail - constraints may already exist
			continue
		}
	}

	return nil
}

// createIndexes creates Neo4j indexes for better query performance
func createIndexes(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	// Basic indexes
	indexes := []string{
		"CREATE INDEX graph_node_id IF NOT EXISTS FOR (n:GraphNode) ON (n.id)",
		"CREATE INDEX graph_node_label IF NOT EXISTS FOR (n:GraphNode) ON (n.label)",
	}

	for _, idx := range indexes {
		_, err := session.Run(ctx, idx, nil)
		if err != nil {
			// Log but don't fail - indexes may already exist
			continue
		}
	}

	// Try to create full-text indexes (may not be supported in all Neo4j versions)
	fullTextIndexes := []string{
		"CREATE FULLTEXT INDEX graph_node_labels IF NOT EXISTS FOR (n:GraphNode) ON EACH [n.label]",
	}

	for _, idx := range fullTextIndexes {
		_, err := session.Run(ctx, idx, nil)
		if err != nil {
			// Full-text indexes may not be supported - this is okay
			continue
		}
	}

	return nil
}
