package store

import (
	"context"

	"trellis/pkg/common"
)

// GraphStorage defines the interface for persisting knowledge graphs.
// Writes are additive: saving an item that already exists refreshes its
// properties but never deletes anything. FetchExistingIndex returns the
// full dedup index for a graph in one call so ingestion never issues
// per-item existence checks.
type GraphStorage interface {
	SaveChunks(ctx context.Context, graphID string, chunks []common.Chunk) error
	SaveNodes(ctx context.Context, graphID string, nodes []common.GraphNode) error
	SaveEdges(ctx context.Context, graphID string, edges []common.Edge) error
	SaveDataPoints(ctx context.Context, graphID string, points []common.DataPoint) error

	FetchExistingIndex(ctx context.Context, graphID string) (*common.ExistingGraphIndex, error)

	DeleteGraph(ctx context.Context, graphID string) error
}
