package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"graphpad/backend/internal/app"
	"graphpad/backend/internal/graph"
	"graphpad/backend/pkg/config"
	apperrors "graphpad/backend/pkg/errors"
	"graphpad/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graphpad server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Build the graph store the config names
	ctx := context.Background()
	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to build graph store", zap.Error(err))
	}

	// Assemble the application
	application, err := app.NewWithConfig(cfg, store)
	if err != nil {
		log.Fatal("Failed to assemble application", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: application.Router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.GraphStore),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := application.Close(shutdownCtx); err != nil {
		log.Error("Failed to close application", zap.Error(err))
	}

	log.Info("Server exited")
}

// buildStore creates the store backend the config names. Memory needs
// nothing; neo4j connects and verifies connectivity before first use.
func buildStore(ctx context.Context, cfg *config.Config) (graph.Store, error) {
	switch cfg.GraphStore {
	case config.StoreNeo4j:
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			return nil, apperrors.NewStoreConnectionFailed(cfg.Neo4jURI, err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			return nil, apperrors.NewStoreConnectionFailed(cfg.Neo4jURI, err)
		}
		return graph.NewNeo4jStore(driver), nil
	default:
		return graph.NewMemoryStore(), nil
	}
}
