package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"trellis/internal/storage"
	"trellis/internal/util"
	"trellis/pkg/ai"
	"trellis/pkg/graph"
	"trellis/pkg/leaselock"
	"trellis/pkg/logger"
	"trellis/pkg/ontology"
	pgxstore "trellis/pkg/store/pgx"
)

const defaultMaxChunkTokens = 1200

// ProcessIngestMessage runs one document through the full ingestion
// pipeline: fetch the source object, optionally load the ontology,
// chunk and extract, reconcile against the persisted graph, and write
// the additive result set.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(IngestDocumentMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to parse ingest message: %w", err)
	}
	if data.GraphID == "" || data.DocumentID == "" || data.ObjectKey == "" {
		return fmt.Errorf("ingest message missing graph_id, document_id or object_key")
	}

	start := time.Now()
	logger.Info("[Queue] Ingest started",
		"graph_id", data.GraphID,
		"document_id", data.DocumentID,
		"object_key", data.ObjectKey,
		"correlation_id", data.CorrelationID,
	)

	document, err := storage.GetFile(ctx, s3Client, data.ObjectKey)
	if err != nil {
		return err
	}

	resolver, err := loadOntology(ctx, s3Client, data.OntologyPrefix)
	if err != nil {
		return err
	}

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		TokenEncoder:   util.GetEnvString("TOKEN_ENCODER", "o200k_base"),
		ParallelChunks: int(util.GetEnvNumeric("PARALLEL_CHUNKS", 4)),
		MaxRetries:     int(util.GetEnvNumeric("EXTRACTION_RETRIES", 3)),
		Resolver:       resolver,
	})
	if err != nil {
		return err
	}

	storageClient, err := pgxstore.NewGraphDBStorageWithConnection(ctx, conn, aiClient)
	if err != nil {
		return err
	}

	maxTokens := data.MaxChunkTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxChunkTokens
	}

	// The index snapshot and the additive writes have to be atomic per
	// graph, so concurrent ingests for the same graph take turns.
	lockClient := leaselock.New(conn)
	err = lockClient.WithLease(ctx, "graph:"+data.GraphID, leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		Wait:        true,
		TokenPrefix: fmt.Sprintf("ingest/%s/", data.DocumentID),
	}, func(ctx context.Context) error {
		index, err := storageClient.FetchExistingIndex(ctx, data.GraphID)
		if err != nil {
			return fmt.Errorf("failed to load existing graph index: %w", err)
		}

		result, err := graphClient.ProcessDocument(ctx, aiClient, data.DocumentID, string(document), maxTokens, index)
		if err != nil {
			return err
		}

		if err := storageClient.SaveChunks(ctx, data.GraphID, result.Chunks); err != nil {
			return err
		}
		if err := storageClient.SaveNodes(ctx, data.GraphID, result.Nodes); err != nil {
			return err
		}
		if err := storageClient.SaveEdges(ctx, data.GraphID, result.Edges); err != nil {
			return err
		}
		if err := storageClient.SaveDataPoints(ctx, data.GraphID, result.DataPoints); err != nil {
			return err
		}

		logger.Info("[Queue] Ingest completed",
			"graph_id", data.GraphID,
			"document_id", data.DocumentID,
			"chunks", len(result.Chunks),
			"new_nodes", len(result.Nodes),
			"new_edges", len(result.Edges),
			"duration_sec", time.Since(start).Seconds(),
		)
		return nil
	})
	return err
}

// loadOntology fetches every object under the prefix and builds a
// resolver from them. An empty prefix yields no resolver, which leaves
// names uncanonicalized.
func loadOntology(ctx context.Context, s3Client *awss3.Client, prefix string) (*ontology.Resolver, error) {
	if prefix == "" {
		return nil, nil
	}

	keys, err := storage.ListFilesWithPrefix(ctx, s3Client, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		logger.Warn("[Queue] Ontology prefix matched no objects", "prefix", prefix)
		return nil, nil
	}

	sources := make([]ontology.Source, 0, len(keys))
	for _, key := range keys {
		content, err := storage.GetFile(ctx, s3Client, key)
		if err != nil {
			return nil, err
		}
		sources = append(sources, ontology.Source{
			Name:   key,
			Reader: bytes.NewReader(content),
		})
	}

	resolver, err := ontology.NewResolver(ontology.NewResolverParams{Sources: sources})
	if err != nil {
		return nil, fmt.Errorf("failed to load ontology from prefix %s: %w", prefix, err)
	}
	return resolver, nil
}
