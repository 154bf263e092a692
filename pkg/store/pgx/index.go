package pgx

import (
	"context"

	"github.com/google/uuid"

	"trellis/pkg/common"
	"trellis/pkg/logger"
)

// FetchExistingIndex loads the full dedup index for a graph: every
// persisted node id and edge key. It is the one read ingestion performs
// before merging, so it must never be called per item.
func (s *GraphDBStorage) FetchExistingIndex(ctx context.Context, graphID string) (*common.ExistingGraphIndex, error) {
	index := common.NewExistingGraphIndex()

	rows, err := s.conn.Query(ctx, `SELECT public_id FROM graph_nodes WHERE graph_id = $1`, graphID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		index.Nodes[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.conn.Query(ctx, `SELECT source_id, target_id, name FROM graph_edges WHERE graph_id = $1`, graphID)
	if err != nil {
		return nil, err
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var source, target uuid.UUID
		var name string
		if err := edgeRows.Scan(&source, &target, &name); err != nil {
			return nil, err
		}
		index.Edges[common.EdgeKey(source, target, name)] = struct{}{}
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	logger.Debug("[Store][FetchExistingIndex] Loaded index",
		"graph", graphID, "nodes", len(index.Nodes), "edges", len(index.Edges))
	return index, nil
}

// DeleteGraph removes everything persisted for a graph.
func (s *GraphDBStorage) DeleteGraph(ctx context.Context, graphID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"data_points", "graph_edges", "graph_nodes", "document_chunks"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE graph_id = $1`, graphID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
