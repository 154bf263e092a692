package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"trellis/internal/storage"
	"trellis/pkg/ai"
	"trellis/pkg/leaselock"
	"trellis/pkg/logger"
	pgxstore "trellis/pkg/store/pgx"
)

// ProcessDeleteMessage drops every persisted row for a graph and, when
// an object prefix is given, the stored source objects as well.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(DeleteGraphMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to parse delete message: %w", err)
	}
	if data.GraphID == "" {
		return fmt.Errorf("delete message missing graph_id")
	}

	storageClient, err := pgxstore.NewGraphDBStorageWithConnection(ctx, conn, aiClient)
	if err != nil {
		return err
	}

	start := time.Now()
	lockClient := leaselock.New(conn)
	err = lockClient.WithLease(ctx, "graph:"+data.GraphID, leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		Wait:        true,
		TokenPrefix: fmt.Sprintf("delete/%s/", data.GraphID),
	}, func(ctx context.Context) error {
		return storageClient.DeleteGraph(ctx, data.GraphID)
	})
	if err != nil {
		return err
	}

	if data.ObjectPrefix != "" {
		if err := storage.DeleteFolder(ctx, s3Client, data.ObjectPrefix); err != nil {
			logger.Warn("[Queue] Failed to delete stored objects", "prefix", data.ObjectPrefix, "err", err)
		}
	}

	logger.Info("[Queue] Delete completed",
		"graph_id", data.GraphID,
		"correlation_id", data.CorrelationID,
		"duration_sec", time.Since(start).Seconds(),
	)
	return nil
}
