package api

import (
	"net/http"

	"graphpad/backend/internal/graph"
	"graphpad/backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads caps the store fan-out of the bulk export
const maxConcurrentReads = 8

// listUsers returns the IDs of every user that has a stored graph
func (h *Handlers) listUsers(c *gin.Context) {
	ctx := c.Request.Context()

	ids, err := h.store.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": ids})
}

// getGraph returns the complete graph stored for a user
func (h *Handlers) getGraph(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	g, err := h.store.Get(ctx, userID)
	if err != nil {
		if _, ok := err.(graph.ErrNotFound); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Graph not found"})
			return
		}
		h.logger.Error("Failed to fetch graph", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch graph"})
		return
	}

	c.JSON(http.StatusOK, g)
}

// putGraph validates and stores the complete graph for a user,
// replacing whatever was there before
func (h *Handlers) putGraph(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	var g graph.Graph
	if err := c.ShouldBindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignIDs(&g)
	if err := g.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Put(ctx, userID, &g); err != nil {
		h.logger.Error("Failed to store graph", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store graph"})
		return
	}

	metrics.GraphWrites.WithLabelValues(h.backend).Inc()
	h.hub.Broadcast(userID, ActionUpdated)

	c.JSON(http.StatusOK, gin.H{
		"status": "stored",
		"nodes":  len(g.Nodes),
		"edges":  len(g.Edges),
	})
}

// deleteGraph removes a user's graph
func (h *Handlers) deleteGraph(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	if err := h.store.Delete(ctx, userID); err != nil {
		if _, ok := err.(graph.ErrNotFound); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Graph not found"})
			return
		}
		h.logger.Error("Failed to delete graph", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete graph"})
		return
	}

	metrics.GraphDeletes.WithLabelValues(h.backend).Inc()
	h.hub.Broadcast(userID, ActionDeleted)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// exportGraphs returns every stored graph keyed by user ID. Reads fan
// out concurrently because each one may be a database round trip.
func (h *Handlers) exportGraphs(c *gin.Context) {
	ctx := c.Request.Context()

	ids, err := h.store.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export graphs"})
		return
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentReads)

	results := make([]*graph.Graph, len(ids))
	for i, id := range ids {
		idx, userID := i, id
		eg.Go(func() error {
			g, err := h.store.Get(gctx, userID)
			if err != nil {
				// A graph deleted between List and Get is not an error
				if _, ok := err.(graph.ErrNotFound); ok {
					return nil
				}
				return err
			}
			results[idx] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("Failed to export graphs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export graphs"})
		return
	}

	graphs := make(map[string]*graph.Graph, len(ids))
	for i, id := range ids {
		if results[i] != nil {
			graphs[id] = results[i]
		}
	}

	c.JSON(http.StatusOK, gin.H{"graphs": graphs})
}

// watchGraph upgrades to a websocket that streams the user's graph events
func (h *Handlers) watchGraph(c *gin.Context) {
	serveWatch(h.hub, c.Param("id"), h.logger, c.Writer, c.Request)
}

// assignIDs fills in IDs the client left blank
func assignIDs(g *graph.Graph) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == "" {
			g.Nodes[i].ID = uuid.New().String()
		}
	}
	for i := range g.Edges {
		if g.Edges[i].ID == "" {
			g.Edges[i].ID = uuid.New().String()
		}
	}
}
