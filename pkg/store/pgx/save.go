package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"trellis/pkg/common"
	"trellis/pkg/logger"
	"trellis/pkg/store"
)

const (
	nodeChunk      = 250
	edgeChunk      = 500
	dataPointChunk = 100
)

const upsertNodeSQL = `
INSERT INTO graph_nodes (graph_id, public_id, properties)
VALUES ($1, $2, $3)
ON CONFLICT (graph_id, public_id)
DO UPDATE SET properties = graph_nodes.properties || EXCLUDED.properties, updated_at = now()`

const upsertEdgeSQL = `
INSERT INTO graph_edges (graph_id, source_id, target_id, name, properties)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (graph_id, source_id, target_id, name)
DO UPDATE SET properties = EXCLUDED.properties, updated_at = now()`

const insertChunkSQL = `
INSERT INTO document_chunks (graph_id, public_id, document_id, chunk_index, content, token_count)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (graph_id, public_id) DO NOTHING`

const upsertDataPointSQL = `
INSERT INTO data_points (graph_id, public_id, payload, embed_field, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (graph_id, public_id)
DO UPDATE SET payload = EXCLUDED.payload, embedding = EXCLUDED.embedding, updated_at = now()`

// SaveNodes upserts nodes in bulk. Existing nodes get a property
// refresh instead of a replacement, so re-ingestion never loses
// properties written by earlier batches.
func (s *GraphDBStorage) SaveNodes(ctx context.Context, graphID string, nodes []common.GraphNode) error {
	if len(nodes) == 0 {
		return nil
	}

	return store.ChunkRange(len(nodes), nodeChunk, func(start, end int) error {
		part := nodes[start:end]
		logger.Debug("[Store][SaveNodes] Saving chunk", "nodes", len(part))

		batch := &pgxv5.Batch{}
		for _, node := range part {
			batch.Queue(upsertNodeSQL, graphID, node.ID, node.Properties)
		}
		return s.sendBatch(ctx, batch)
	})
}

// SaveEdges upserts edges in bulk, keyed by (source, target, name).
func (s *GraphDBStorage) SaveEdges(ctx context.Context, graphID string, edges []common.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	return store.ChunkRange(len(edges), edgeChunk, func(start, end int) error {
		part := edges[start:end]
		logger.Debug("[Store][SaveEdges] Saving chunk", "edges", len(part))

		batch := &pgxv5.Batch{}
		for _, edge := range part {
			batch.Queue(upsertEdgeSQL, graphID, edge.SourceID, edge.TargetID, edge.Name, edge.Properties)
		}
		return s.sendBatch(ctx, batch)
	})
}

// SaveChunks records the raw chunk texts backing a batch.
func (s *GraphDBStorage) SaveChunks(ctx context.Context, graphID string, chunks []common.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgxv5.Batch{}
	for _, chunk := range chunks {
		batch.Queue(insertChunkSQL, graphID, chunk.ID, chunk.DocumentID, chunk.Index, chunk.Text, chunk.TokenCount)
	}
	return s.sendBatch(ctx, batch)
}

// SaveDataPoints embeds each payload's embed field and upserts the
// vectors alongside the payloads.
func (s *GraphDBStorage) SaveDataPoints(ctx context.Context, graphID string, points []common.DataPoint) error {
	if len(points) == 0 {
		return nil
	}

	return store.ChunkRange(len(points), dataPointChunk, func(start, end int) error {
		part := points[start:end]

		inputs := make([][]byte, len(part))
		for i, point := range part {
			text, _ := point.Payload[point.EmbedField].(string)
			inputs[i] = []byte(text)
		}
		logger.Debug("[Store][SaveDataPoints] Generating embeddings", "count", len(inputs))
		embeddings, err := store.GenerateEmbeddings(ctx, s.aiClient, inputs)
		if err != nil {
			return err
		}

		batch := &pgxv5.Batch{}
		for i, point := range part {
			batch.Queue(upsertDataPointSQL, graphID, point.ID, point.Payload, point.EmbedField,
				pgvector.NewVector(embeddings[i]))
		}
		return s.sendBatch(ctx, batch)
	})
}

func (s *GraphDBStorage) sendBatch(ctx context.Context, batch *pgxv5.Batch) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("batch statement %d failed: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
