package graph

// ============================================================================
// Graph Types
// ============================================================================

// Node is a single vertex in a user's graph
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is a directed connection between two nodes of the same graph
type Edge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph is the complete graph owned by one user
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: []Node{},
		Edges: []Edge{},
	}
}

// Clone returns a deep copy of the graph. Node property values are
// copied recursively, nested maps and slices included, so neither
// graph can observe writes made through the other.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return NewGraph()
	}

	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		cp := n
		if n.Properties != nil {
			cp.Properties = make(map[string]any, len(n.Properties))
			for k, v := range n.Properties {
				cp.Properties[k] = cloneValue(v)
			}
		}
		out.Nodes[i] = cp
	}
	copy(out.Edges, g.Edges)

	return out
}

// cloneValue copies the value shapes JSON decoding produces. Nested
// maps and slices are duplicated, scalars pass through as is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// NodeByID returns the node with the given ID
func (g *Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks structural integrity: node IDs must be present and
// unique, and every edge must reference nodes that exist in the graph.
func (g *Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return ErrInvalidGraph{Reason: "node with empty id"}
		}
		if ids[n.ID] {
			return ErrInvalidGraph{Reason: "duplicate node id: " + n.ID}
		}
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.From] {
			return ErrInvalidGraph{Reason: "edge references unknown node: " + e.From}
		}
		if !ids[e.To] {
			return ErrInvalidGraph{Reason: "edge references unknown node: " + e.To}
		}
	}
	return nil
}
