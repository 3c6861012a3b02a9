// Package app assembles a ready-to-serve application instance:
// configuration, the per-user graph store, the watch hub, and a router
// with every route registered. Construction is plain wiring, the
// pieces come in through the constructors and nothing hangs off
// package globals.
package app

import (
	"context"
	"net/http"
	"time"

	"graphpad/backend/internal/api"
	"graphpad/backend/internal/graph"
	"graphpad/backend/pkg/config"
	"graphpad/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// readyProbeTimeout bounds the store ping behind GET /ready
const readyProbeTimeout = 2 * time.Second

// App is one fully wired application instance
type App struct {
	Config *config.Config
	Store  graph.Store
	Hub    *api.Hub
	Router *gin.Engine

	logger *zap.Logger
}

// New builds an instance on the default configuration with a fresh,
// empty in-memory graph store. testConfig, when non-nil, is merged
// over the defaults and wins on every key it names; keys it omits keep
// their default values.
func New(testConfig map[string]any) (*App, error) {
	cfg := config.Default()
	if testConfig != nil {
		if err := cfg.Merge(testConfig); err != nil {
			return nil, err
		}
	}
	return NewWithConfig(cfg, graph.NewMemoryStore())
}

// NewWithConfig wires an instance from explicit parts. The app takes
// ownership of the store and releases it on Close.
func NewWithConfig(cfg *config.Config, store graph.Store) (*App, error) {
	log := logger.Get()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSOrigin))
	router.Use(metricsMiddleware())

	hub := api.NewHub(log)
	go hub.Start()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: the instance serves once its store answers
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyProbeTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("Readiness probe failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API route collection
	api.RegisterRoutes(router, api.NewHandlers(store, hub, cfg.GraphStore))

	return &App{
		Config: cfg,
		Store:  store,
		Hub:    hub,
		Router: router,
		logger: log,
	}, nil
}

// Close stops the watch hub and releases the store
func (a *App) Close(ctx context.Context) error {
	a.Hub.Stop()
	err := a.Store.Close(ctx)
	a.logger.Debug("Application closed")
	return err
}
