package graph

import (
	"testing"

	"trellis/pkg/common"
)

func walkedChain(t *testing.T) ([]common.Node, []common.Edge) {
	t.Helper()
	arena := common.NewArena()
	a, b := newID("a"), newID("b")
	arena.Put(&common.Object{ID: a, Name: "a", TypeName: "T", Relations: []common.Relation{common.Single("ref", b)}})
	arena.Put(&common.Object{ID: b, Name: "b", TypeName: "T"})

	nodes, edges, err := Walk(arena, a, common.NewWalkState())
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	return nodes, edges
}

func TestMergeIncrementalEmptyIndexPassesEverything(t *testing.T) {
	nodes, edges := walkedChain(t)

	newNodes, newEdges := MergeIncremental(nodes, edges, common.NewExistingGraphIndex(), NewBatchState())
	if len(newNodes) != len(nodes) || len(newEdges) != len(edges) {
		t.Fatalf("merge against empty index dropped items: %d/%d nodes, %d/%d edges",
			len(newNodes), len(nodes), len(newEdges), len(edges))
	}
}

func TestMergeIncrementalIdempotent(t *testing.T) {
	nodes, edges := walkedChain(t)

	existing := common.NewExistingGraphIndex()
	first, firstEdges := MergeIncremental(nodes, edges, existing, NewBatchState())
	for _, n := range first {
		existing.Nodes[n.ID] = struct{}{}
	}
	for _, e := range firstEdges {
		existing.Edges[e.Key()] = struct{}{}
	}

	second, secondEdges := MergeIncremental(nodes, edges, existing, NewBatchState())
	if len(second) != 0 || len(secondEdges) != 0 {
		t.Fatalf("re-ingesting identical content must be a no-op, got %d nodes, %d edges",
			len(second), len(secondEdges))
	}
}

func TestMergeIncrementalDedupesAcrossChunks(t *testing.T) {
	nodes, edges := walkedChain(t)

	batch := NewBatchState()
	existing := common.NewExistingGraphIndex()

	first, firstEdges := MergeIncremental(nodes, edges, existing, batch)
	if len(first) == 0 || len(firstEdges) == 0 {
		t.Fatalf("first chunk must contribute, got %d nodes, %d edges", len(first), len(firstEdges))
	}

	second, secondEdges := MergeIncremental(nodes, edges, existing, batch)
	if len(second) != 0 || len(secondEdges) != 0 {
		t.Fatalf("later chunk must dedupe against the running batch, got %d nodes, %d edges",
			len(second), len(secondEdges))
	}
}

func TestMergeIncrementalNilIndex(t *testing.T) {
	nodes, edges := walkedChain(t)

	newNodes, newEdges := MergeIncremental(nodes, edges, nil, NewBatchState())
	if len(newNodes) != len(nodes) || len(newEdges) != len(edges) {
		t.Fatalf("nil index must behave as empty, got %d nodes, %d edges", len(newNodes), len(newEdges))
	}
}
