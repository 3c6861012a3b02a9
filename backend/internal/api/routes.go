package api

import (
	"graphpad/backend/internal/graph"
	"graphpad/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the dependencies the route collection works with.
// Everything comes in through the constructor so handlers never reach
// for package-level state.
type Handlers struct {
	store   graph.Store
	hub     *Hub
	backend string
	logger  *zap.Logger
}

// NewHandlers creates the handler set. backend names the store
// implementation ("memory" or "neo4j") for metric labels.
func NewHandlers(store graph.Store, hub *Hub, backend string) *Handlers {
	return &Handlers{
		store:   store,
		hub:     hub,
		backend: backend,
		logger:  logger.Get(),
	}
}

// RegisterRoutes mounts the API route collection onto r
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	api := r.Group("/api")
	{
		// User graphs
		api.GET("/users", h.listUsers)
		api.GET("/users/:id/graph", h.getGraph)
		api.PUT("/users/:id/graph", h.putGraph)
		api.DELETE("/users/:id/graph", h.deleteGraph)

		// Everything at once, keyed by user
		api.GET("/graphs", h.exportGraphs)

		// Build a graph out of an HTML page's links
		api.POST("/users/:id/graph/import", h.importGraph)

		// Live change feed
		api.GET("/users/:id/graph/watch", h.watchGraph)
	}
}
