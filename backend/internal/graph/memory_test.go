package graph

import (
	"context"
	"reflect"
	"testing"
)

func sampleGraph() *Graph {
	return &Graph{
		Nodes: []Node{
			{ID: "a", Label: "Alpha", Properties: map[string]any{"kind": "page"}},
			{ID: "b", Label: "Beta"},
		},
		Edges: []Edge{
			{ID: "e1", From: "a", To: "b", Label: "links_to"},
		},
	}
}

func TestMemoryStorePutAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "alice"); err == nil {
		t.Fatal("Expected ErrNotFound before first put")
	} else if _, ok := err.(ErrNotFound); !ok {
		t.Fatalf("Expected ErrNotFound, got %T", err)
	}

	if err := store.Put(ctx, "alice", sampleGraph()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(got.Nodes))
	}
	if len(got.Edges) != 1 {
		t.Errorf("Expected 1 edge, got %d", len(got.Edges))
	}
	if got.Nodes[0].Properties["kind"] != "page" {
		t.Errorf("Expected node property to survive, got %v", got.Nodes[0].Properties)
	}
}

func TestMemoryStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "alice", sampleGraph()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	replacement := &Graph{Nodes: []Node{{ID: "c", Label: "Gamma"}}}
	if err := store.Put(ctx, "alice", replacement); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "c" {
		t.Errorf("Expected replacement graph, got %+v", got)
	}
	if len(got.Edges) != 0 {
		t.Errorf("Expected no edges after replacement, got %d", len(got.Edges))
	}
}

func TestMemoryStorePutNilStoresEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "alice", nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected empty graph, got nil")
	}
	if len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Errorf("Expected empty graph, got %+v", got)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	g := sampleGraph()
	g.Nodes[0].Properties["meta"] = map[string]any{"x": 1, "tags": []any{"a"}}
	if err := store.Put(ctx, "alice", g); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	first, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	first.Nodes[0].ID = "mutated"
	first.Nodes[0].Properties["kind"] = "mutated"
	first.Nodes[0].Properties["meta"].(map[string]any)["x"] = 999
	first.Nodes[0].Properties["meta"].(map[string]any)["tags"].([]any)[0] = "mutated"
	first.Edges[0].From = "mutated"

	second, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if second.Nodes[0].ID != "a" {
		t.Errorf("Stored node leaked caller mutation: %q", second.Nodes[0].ID)
	}
	if second.Nodes[0].Properties["kind"] != "page" {
		t.Errorf("Stored property leaked caller mutation: %v", second.Nodes[0].Properties)
	}
	meta := second.Nodes[0].Properties["meta"].(map[string]any)
	if meta["x"] != 1 {
		t.Errorf("Stored nested map leaked caller mutation: %v", meta["x"])
	}
	if meta["tags"].([]any)[0] != "a" {
		t.Errorf("Stored nested slice leaked caller mutation: %v", meta["tags"])
	}
	if second.Edges[0].From != "a" {
		t.Errorf("Stored edge leaked caller mutation: %q", second.Edges[0].From)
	}
}

func TestMemoryStorePutCopiesInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	input := sampleGraph()
	input.Nodes[0].Properties["meta"] = map[string]any{"x": 1}
	if err := store.Put(ctx, "alice", input); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	input.Nodes[0].ID = "mutated"
	input.Nodes[0].Properties["kind"] = "mutated"
	input.Nodes[0].Properties["meta"].(map[string]any)["x"] = 999

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Nodes[0].ID != "a" {
		t.Errorf("Store observed caller mutation: %q", got.Nodes[0].ID)
	}
	if got.Nodes[0].Properties["kind"] != "page" {
		t.Errorf("Store observed property mutation: %v", got.Nodes[0].Properties)
	}
	if got.Nodes[0].Properties["meta"].(map[string]any)["x"] != 1 {
		t.Errorf("Store observed nested mutation: %v", got.Nodes[0].Properties["meta"])
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "alice", sampleGraph()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(ctx, "alice"); err == nil {
		t.Error("Expected ErrNotFound after delete")
	}

	err := store.Delete(ctx, "alice")
	if _, ok := err.(ErrNotFound); !ok {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStoreListSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"carol", "alice", "bob"} {
		if err := store.Put(ctx, id, NewGraph()); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Expected %v, got %v", want, ids)
	}
	if store.Len() != 3 {
		t.Errorf("Expected Len 3, got %d", store.Len())
	}
}

func TestMemoryStoresAreIndependent(t *testing.T) {
	ctx := context.Background()

	first := NewMemoryStore()
	second := NewMemoryStore()

	if err := first.Put(ctx, "alice", sampleGraph()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := second.Get(ctx, "alice"); err == nil {
		t.Error("Expected second store to stay empty")
	}
	if second.Len() != 0 {
		t.Errorf("Expected second store Len 0, got %d", second.Len())
	}
}

func TestGraphValidate(t *testing.T) {
	tests := []struct {
		name    string
		graph   *Graph
		wantErr bool
	}{
		{"valid", sampleGraph(), false},
		{"empty", NewGraph(), false},
		{"empty node id", &Graph{Nodes: []Node{{ID: ""}}}, true},
		{"duplicate node id", &Graph{Nodes: []Node{{ID: "a"}, {ID: "a"}}}, true},
		{"edge from unknown node", &Graph{
			Nodes: []Node{{ID: "a"}},
			Edges: []Edge{{ID: "e1", From: "ghost", To: "a"}},
		}, true},
		{"edge to unknown node", &Graph{
			Nodes: []Node{{ID: "a"}},
			Edges: []Edge{{ID: "e1", From: "a", To: "ghost"}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected valid graph, got %v", err)
			}
			if tt.wantErr {
				if _, ok := err.(ErrInvalidGraph); !ok {
					t.Errorf("Expected ErrInvalidGraph, got %T", err)
				}
			}
		})
	}
}

func TestGraphCloneCopiesNestedProperties(t *testing.T) {
	g := sampleGraph()
	g.Nodes[0].Properties["meta"] = map[string]any{
		"depth": map[string]any{"x": 1},
		"tags":  []any{"a", "b"},
	}

	cloned := g.Clone()
	meta := cloned.Nodes[0].Properties["meta"].(map[string]any)
	meta["depth"].(map[string]any)["x"] = 999
	meta["tags"].([]any)[0] = "mutated"

	orig := g.Nodes[0].Properties["meta"].(map[string]any)
	if orig["depth"].(map[string]any)["x"] != 1 {
		t.Errorf("Clone shares nested map with original: %v", orig["depth"])
	}
	if orig["tags"].([]any)[0] != "a" {
		t.Errorf("Clone shares nested slice with original: %v", orig["tags"])
	}
}

func TestGraphCloneNil(t *testing.T) {
	var g *Graph

	cloned := g.Clone()
	if cloned == nil {
		t.Fatal("Expected empty graph from nil clone")
	}
	if len(cloned.Nodes) != 0 || len(cloned.Edges) != 0 {
		t.Errorf("Expected empty graph, got %+v", cloned)
	}
}

func TestGraphNodeByID(t *testing.T) {
	g := sampleGraph()

	node, ok := g.NodeByID("a")
	if !ok {
		t.Fatal("Expected to find node a")
	}
	if node.Label != "Alpha" {
		t.Errorf("Expected label Alpha, got %q", node.Label)
	}

	if _, ok := g.NodeByID("ghost"); ok {
		t.Error("Expected lookup miss for unknown id")
	}
}
