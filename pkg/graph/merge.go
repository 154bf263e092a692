package graph

import (
	"github.com/google/uuid"

	"trellis/pkg/common"
)

// BatchState accumulates what has already been emitted earlier in the
// same ingestion batch, so later chunks dedupe against earlier ones.
type BatchState struct {
	Nodes map[uuid.UUID]struct{}
	Edges map[string]struct{}
}

func NewBatchState() *BatchState {
	return &BatchState{
		Nodes: make(map[uuid.UUID]struct{}),
		Edges: make(map[string]struct{}),
	}
}

// MergeIncremental reconciles freshly walked nodes and edges against
// the persisted-graph index and the running batch state, returning
// only the subset that must actually be written.
//
// The merge is purely additive: nothing persisted is deleted or
// mutated here, and refreshing an existing node's properties is a
// separate store operation. The existing index must be pre-fetched in
// one batched call; this function never talks to a store.
func MergeIncremental(
	nodes []common.Node,
	edges []common.Edge,
	existing *common.ExistingGraphIndex,
	batch *BatchState,
) ([]common.Node, []common.Edge) {
	newNodes := make([]common.Node, 0, len(nodes))
	for _, node := range nodes {
		if existing.HasNode(node.ID) {
			continue
		}
		if _, seen := batch.Nodes[node.ID]; seen {
			continue
		}
		batch.Nodes[node.ID] = struct{}{}
		newNodes = append(newNodes, node)
	}

	newEdges := make([]common.Edge, 0, len(edges))
	for _, edge := range edges {
		key := edge.Key()
		if existing.HasEdge(key) {
			continue
		}
		if _, seen := batch.Edges[key]; seen {
			continue
		}
		batch.Edges[key] = struct{}{}
		newEdges = append(newEdges, edge)
	}

	return newNodes, newEdges
}
