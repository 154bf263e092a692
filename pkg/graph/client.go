package graph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"trellis/internal/util"
	"trellis/pkg/ai"
	"trellis/pkg/common"
	"trellis/pkg/ontology"
)

// GraphClient is the main client for turning documents into graph
// updates. It manages token encoding, chunk processing parallelism,
// and retry behavior for extraction calls.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	tokenEncoder   string
	parallelChunks int
	maxRetries     int
	resolver       *ontology.Resolver
}

// NewGraphClientParams defines the configuration parameters for
// creating a new GraphClient.
//
// TokenEncoder specifies the tiktoken encoding used for chunk budgets.
// ParallelChunks controls how many chunks are extracted concurrently.
// Resolver is optional; without one, names pass through unchanged.
type NewGraphClientParams struct {
	TokenEncoder   string
	ParallelChunks int
	MaxRetries     int
	Resolver       *ontology.Resolver
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	parallel := params.ParallelChunks
	if parallel <= 0 {
		parallel = 1
	}
	g := &GraphClient{
		tokenEncoder:   params.TokenEncoder,
		parallelChunks: parallel,
		maxRetries:     maxRetries,
		resolver:       params.Resolver,
	}

	return g, nil
}

// BuildResult is the write set produced from one ingestion batch: only
// nodes and edges absent from the persisted graph, plus one embeddable
// data point per new named node.
type BuildResult struct {
	Chunks     []common.Chunk
	Nodes      []common.GraphNode
	Edges      []common.Edge
	DataPoints []common.DataPoint
}

// ProcessDocument chunks a document, extracts a flat graph from every
// chunk through the AI client, and reconciles the combined result
// against the existing graph. Extraction runs concurrently across
// chunks with per-call retries; a chunk that exhausts its retries fails
// the whole batch.
func (g *GraphClient) ProcessDocument(
	ctx context.Context,
	client ai.GraphAIClient,
	documentID string,
	text string,
	maxTokens int,
	existing *common.ExistingGraphIndex,
) (*BuildResult, error) {
	chunks, err := ChunkText(text, documentID, g.tokenEncoder, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document %s: %w", documentID, err)
	}
	if len(chunks) == 0 {
		return &BuildResult{}, nil
	}

	graphs := make([]common.ExtractedGraph, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelChunks)
	for i := range chunks {
		eg.Go(func() error {
			extracted, err := util.RetryWithContext(gCtx, g.maxRetries, func(ctx context.Context) (common.ExtractedGraph, error) {
				return ai.ExtractGraph(ctx, client, chunks[i].Text)
			})
			if err != nil {
				return fmt.Errorf("failed to extract graph from chunk %d: %w", chunks[i].Index, err)
			}
			graphs[i] = extracted
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result, err := g.BuildGraph(ctx, chunks, graphs, existing)
	if err != nil {
		return nil, err
	}
	result.Chunks = chunks
	return result, nil
}

// BuildGraph converts per-chunk extracted graphs into the canonical
// node and edge write set. Each chunk is walked with its own scratch
// state; results merge sequentially into a shared batch state so later
// chunks dedupe against earlier ones and against the persisted graph.
// A chunk whose walk fails contributes nothing and aborts the batch.
func (g *GraphClient) BuildGraph(
	ctx context.Context,
	chunks []common.Chunk,
	graphs []common.ExtractedGraph,
	existing *common.ExistingGraphIndex,
) (*BuildResult, error) {
	arena, roots, err := BuildArena(chunks, graphs, g.resolver)
	if err != nil {
		return nil, err
	}

	batch := NewBatchState()
	var newNodes []common.Node
	var newEdges []common.Edge
	mergeMu := sync.Mutex{}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelChunks)
	for _, rootID := range roots {
		eg.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			nodes, edges, err := Walk(arena, rootID, common.NewWalkState())
			if err != nil {
				return fmt.Errorf("failed to walk chunk %s: %w", rootID, err)
			}

			mergeMu.Lock()
			addNodes, addEdges := MergeIncremental(nodes, edges, existing, batch)
			newNodes = append(newNodes, addNodes...)
			newEdges = append(newEdges, addEdges...)
			mergeMu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &BuildResult{
		Nodes:      make([]common.GraphNode, 0, len(newNodes)),
		Edges:      newEdges,
		DataPoints: make([]common.DataPoint, 0, len(newNodes)),
	}
	for _, node := range newNodes {
		result.Nodes = append(result.Nodes, common.GraphNode{
			ID:         node.ID,
			Properties: node.Properties,
		})
		if point, ok := dataPointFromNode(node); ok {
			result.DataPoints = append(result.DataPoints, point)
		}
	}

	return result, nil
}

// dataPointFromNode makes every named node searchable by embedding its
// display name. Unnamed nodes stay graph-only.
func dataPointFromNode(node common.Node) (common.DataPoint, bool) {
	name, ok := node.Properties["name"].(string)
	if !ok || name == "" {
		return common.DataPoint{}, false
	}

	payload := map[string]any{
		"name": name,
		"type": node.Type,
	}
	if desc, ok := node.Properties["description"].(string); ok && desc != "" {
		payload["description"] = desc
	}

	return common.DataPoint{
		ID:         node.ID,
		Payload:    payload,
		EmbedField: "name",
	}, true
}
