package api

import (
	"io"
	"net/http"
	"strings"

	"graphpad/backend/internal/graph"
	"graphpad/backend/internal/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// importRequest carries an HTML document to turn into a link graph
type importRequest struct {
	HTML string `json:"html" binding:"required"`
}

// importGraph parses an HTML page and merges its link structure into
// the user's graph: one node for the page, one node per distinct link
// target, and a links_to edge from the page to each target. Accepts
// either {"html": "..."} or a raw text/html body.
func (h *Handlers) importGraph(c *gin.Context) {
	userID := c.Param("id")
	ctx := c.Request.Context()

	var html string
	if strings.HasPrefix(c.ContentType(), "text/html") {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		html = string(raw)
	} else {
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		html = req.HTML
	}

	imported, err := linkGraph(html)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse HTML"})
		return
	}

	current, err := h.store.Get(ctx, userID)
	if err != nil {
		if _, ok := err.(graph.ErrNotFound); ok {
			current = graph.NewGraph()
		} else {
			h.logger.Error("Failed to fetch graph", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch graph"})
			return
		}
	}

	merged := mergeGraphs(current, imported)
	if err := h.store.Put(ctx, userID, merged); err != nil {
		h.logger.Error("Failed to store graph", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store graph"})
		return
	}

	metrics.GraphWrites.WithLabelValues(h.backend).Inc()
	h.hub.Broadcast(userID, ActionUpdated)

	c.JSON(http.StatusOK, gin.H{
		"status":   "imported",
		"imported": len(imported.Nodes),
		"nodes":    len(merged.Nodes),
		"edges":    len(merged.Edges),
	})
}

// linkGraph builds a graph from one HTML document
func linkGraph(html string) (*graph.Graph, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "untitled"
	}

	g := graph.NewGraph()
	page := graph.Node{
		ID:         uuid.New().String(),
		Label:      title,
		Properties: map[string]any{"kind": "page"},
	}
	g.Nodes = append(g.Nodes, page)

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true

		props := map[string]any{"kind": "link"}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			props["text"] = text
		}
		target := graph.Node{
			ID:         uuid.New().String(),
			Label:      href,
			Properties: props,
		}
		g.Nodes = append(g.Nodes, target)
		g.Edges = append(g.Edges, graph.Edge{
			ID:    uuid.New().String(),
			From:  page.ID,
			To:    target.ID,
			Label: "links_to",
		})
	})

	return g, nil
}

// mergeGraphs folds incoming into current. Nodes are deduplicated by
// label so importing the same page twice does not duplicate targets;
// edges whose endpoints collapse onto an existing pair are skipped.
func mergeGraphs(current, incoming *graph.Graph) *graph.Graph {
	byLabel := make(map[string]string, len(current.Nodes))
	for _, n := range current.Nodes {
		if _, ok := byLabel[n.Label]; !ok {
			byLabel[n.Label] = n.ID
		}
	}

	// remap holds incoming node IDs that collapsed onto existing nodes
	remap := make(map[string]string)
	for _, n := range incoming.Nodes {
		if existingID, ok := byLabel[n.Label]; ok {
			remap[n.ID] = existingID
			continue
		}
		byLabel[n.Label] = n.ID
		current.Nodes = append(current.Nodes, n)
	}

	// IDs are user supplied and may contain any characters
	type edgeKey struct {
		from, to, label string
	}
	edgeKeys := make(map[edgeKey]bool, len(current.Edges))
	for _, e := range current.Edges {
		edgeKeys[edgeKey{e.From, e.To, e.Label}] = true
	}
	for _, e := range incoming.Edges {
		if id, ok := remap[e.From]; ok {
			e.From = id
		}
		if id, ok := remap[e.To]; ok {
			e.To = id
		}
		key := edgeKey{e.From, e.To, e.Label}
		if edgeKeys[key] {
			continue
		}
		edgeKeys[key] = true
		current.Edges = append(current.Edges, e)
	}

	return current
}
