package graph

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"trellis/pkg/common"
	"trellis/pkg/identity"
)

func newID(name string) uuid.UUID {
	return identity.DeriveID(name)
}

func TestWalkFlatChain(t *testing.T) {
	arena := common.NewArena()

	docID := newID("doc")
	chunkID := newID("chunk")
	entityID := newID("alice")
	typeID := newID("person")

	arena.Put(&common.Object{
		ID: docID, Name: "doc", TypeName: "Document",
		Relations: []common.Relation{common.Single("chunks", chunkID)},
	})
	arena.Put(&common.Object{
		ID: chunkID, Name: "doc_chunk_0", TypeName: "DocumentChunk",
		Relations: []common.Relation{common.Single("contains", entityID)},
	})
	arena.Put(&common.Object{
		ID: entityID, Name: "Alice", TypeName: "Person",
		Props:     map[string]any{"description": "a person"},
		Relations: []common.Relation{common.Single("is_entity_type", typeID)},
	})
	arena.Put(&common.Object{ID: typeID, Name: "Person", TypeName: "EntityType"})

	nodes, edges, err := Walk(arena, docID, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("len(nodes) = %d, want 4", len(nodes))
	}
	if len(edges) != 3 {
		t.Fatalf("len(edges) = %d, want 3", len(edges))
	}

	byID := make(map[uuid.UUID]common.Node)
	for _, n := range nodes {
		byID[n.ID] = n
	}
	alice, ok := byID[entityID]
	if !ok {
		t.Fatalf("entity node missing from walk output")
	}
	if alice.Properties["name"] != "Alice" || alice.Properties["type"] != "Person" {
		t.Fatalf("entity properties = %v", alice.Properties)
	}
	if _, has := alice.Properties["is_entity_type"]; has {
		t.Fatalf("relation field leaked into node properties: %v", alice.Properties)
	}

	wantEdges := map[string]bool{
		common.EdgeKey(docID, chunkID, "chunks"):           false,
		common.EdgeKey(chunkID, entityID, "contains"):      false,
		common.EdgeKey(entityID, typeID, "is_entity_type"): false,
	}
	for _, e := range edges {
		if _, ok := wantEdges[e.Key()]; !ok {
			t.Fatalf("unexpected edge %s", e.Key())
		}
		wantEdges[e.Key()] = true
	}
	for k, seen := range wantEdges {
		if !seen {
			t.Fatalf("edge %s missing", k)
		}
	}
}

func TestWalkCycle(t *testing.T) {
	arena := common.NewArena()
	a, b, c := newID("a"), newID("b"), newID("c")
	arena.Put(&common.Object{ID: a, Name: "a", TypeName: "T", Relations: []common.Relation{common.Single("next", b)}})
	arena.Put(&common.Object{ID: b, Name: "b", TypeName: "T", Relations: []common.Relation{common.Single("next", c)}})
	arena.Put(&common.Object{ID: c, Name: "c", TypeName: "T", Relations: []common.Relation{common.Single("next", a)}})

	nodes, edges, err := Walk(arena, a, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 3 || len(edges) != 3 {
		t.Fatalf("cycle walk = %d nodes, %d edges, want 3 and 3", len(nodes), len(edges))
	}
}

func TestWalkSelfLoopWeighted(t *testing.T) {
	arena := common.NewArena()
	a := newID("self")
	weight := 1.0
	arena.Put(&common.Object{
		ID: a, Name: "self", TypeName: "T",
		Relations: []common.Relation{
			common.SingleWithEdge("links_to", &common.EdgeSpec{Weight: &weight}, a),
		},
	})

	nodes, edges, err := Walk(arena, a, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 1 || len(edges) != 1 {
		t.Fatalf("self loop walk = %d nodes, %d edges, want 1 and 1", len(nodes), len(edges))
	}
	edge := edges[0]
	if edge.SourceID != a || edge.TargetID != a {
		t.Fatalf("self loop endpoints = %s -> %s", edge.SourceID, edge.TargetID)
	}
	if edge.Properties["weight"] != 1.0 {
		t.Fatalf("weight = %v, want 1.0", edge.Properties["weight"])
	}
}

func TestWalkDuplicateTargets(t *testing.T) {
	arena := common.NewArena()
	a, b := newID("a"), newID("b")
	arena.Put(&common.Object{
		ID: a, Name: "a", TypeName: "T",
		Relations: []common.Relation{common.Many("knows", b, b, b)},
	})
	arena.Put(&common.Object{ID: b, Name: "b", TypeName: "T"})

	nodes, edges, err := Walk(arena, a, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}
	if len(edges) != 1 {
		t.Fatalf("repeated target must emit one edge, got %d", len(edges))
	}
}

func TestWalkSharedChild(t *testing.T) {
	arena := common.NewArena()
	root, x, y, shared := newID("root"), newID("x"), newID("y"), newID("shared")
	arena.Put(&common.Object{
		ID: root, Name: "root", TypeName: "T",
		Relations: []common.Relation{common.Many("children", x, y)},
	})
	arena.Put(&common.Object{ID: x, Name: "x", TypeName: "T", Relations: []common.Relation{common.Single("ref", shared)}})
	arena.Put(&common.Object{ID: y, Name: "y", TypeName: "T", Relations: []common.Relation{common.Single("ref", shared)}})
	arena.Put(&common.Object{ID: shared, Name: "shared", TypeName: "T"})

	nodes, edges, err := Walk(arena, root, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("shared child must surface once, got %d nodes", len(nodes))
	}
	if len(edges) != 4 {
		t.Fatalf("len(edges) = %d, want 4", len(edges))
	}
}

func TestWalkExcludesMetadataField(t *testing.T) {
	arena := common.NewArena()
	a := newID("a")
	arena.Put(&common.Object{
		ID: a, Name: "a", TypeName: "T",
		Props: map[string]any{"metadata": map[string]any{"index_fields": []string{"name"}}, "color": "red"},
	})

	nodes, _, err := Walk(arena, a, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	props := nodes[0].Properties
	if _, has := props["metadata"]; has {
		t.Fatalf("metadata must not surface as a node property: %v", props)
	}
	if props["color"] != "red" {
		t.Fatalf("scalar property lost: %v", props)
	}
}

func TestWalkRelationshipNameOverride(t *testing.T) {
	arena := common.NewArena()
	a, b := newID("a"), newID("b")
	arena.Put(&common.Object{
		ID: a, Name: "a", TypeName: "T",
		Relations: []common.Relation{
			common.SingleWithEdge("deps", &common.EdgeSpec{RelationshipType: "Depends On"}, b),
		},
	})
	arena.Put(&common.Object{ID: b, Name: "b", TypeName: "T"})

	_, edges, err := Walk(arena, a, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(edges) != 1 || edges[0].Name != "depends_on" {
		t.Fatalf("edge name = %q, want depends_on", edges[0].Name)
	}
}

func TestWalkMissingTarget(t *testing.T) {
	arena := common.NewArena()
	a := newID("a")
	arena.Put(&common.Object{
		ID: a, Name: "a", TypeName: "T",
		Relations: []common.Relation{common.Single("ref", newID("ghost"))},
	})

	_, _, err := Walk(arena, a, common.NewWalkState())
	if err == nil {
		t.Fatalf("expected error for relation target missing from arena")
	}
	if !strings.Contains(err.Error(), "not present in arena") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWalkStateSuppressesRevisit(t *testing.T) {
	arena := common.NewArena()
	a, b := newID("a"), newID("b")
	arena.Put(&common.Object{ID: a, Name: "a", TypeName: "T", Relations: []common.Relation{common.Single("ref", b)}})
	arena.Put(&common.Object{ID: b, Name: "b", TypeName: "T"})

	state := common.NewWalkState()
	nodes, edges, err := Walk(arena, a, state)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 2 || len(edges) != 1 {
		t.Fatalf("first walk = %d nodes, %d edges", len(nodes), len(edges))
	}

	nodes, edges, err = Walk(arena, a, state)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(nodes) != 0 || len(edges) != 0 {
		t.Fatalf("second walk with same state must be empty, got %d nodes, %d edges", len(nodes), len(edges))
	}
}
