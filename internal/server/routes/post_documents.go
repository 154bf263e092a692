package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"trellis/internal/queue"
	"trellis/internal/server/middleware"
	"trellis/internal/storage"
	"trellis/pkg/logger"
)

// IngestDocumentsHandler accepts one or more documents as
// multipart/form-data, stores them, and queues one ingest job per file.
func IngestDocumentsHandler(c echo.Context) error {
	type ingestParams struct {
		GraphID        string `param:"graph_id" validate:"required"`
		MaxChunkTokens int    `form:"max_chunk_tokens"`
		UseOntology    bool   `form:"use_ontology"`
	}

	type queuedDocument struct {
		DocumentID    string `json:"document_id"`
		Name          string `json:"name"`
		ObjectKey     string `json:"object_key"`
		CorrelationID string `json:"correlation_id"`
	}

	type ingestResponse struct {
		Message   string           `json:"message"`
		GraphID   string           `json:"graph_id,omitempty"`
		Documents []queuedDocument `json:"documents,omitempty"`
	}

	params := new(ingestParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "No files provided",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, ingestResponse{
			Message: "Unauthorized",
		})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3
	ch := c.(*middleware.AppContext).App.Queue

	ontologyPrefix := ""
	if params.UseOntology {
		ontologyPrefix = fmt.Sprintf("graphs/%s/ontology", params.GraphID)
	}

	queued := make([]queuedDocument, 0, len(uploads))
	for _, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, ingestResponse{
				Message: "Could not open file",
			})
		}
		defer src.Close()

		documentID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}
		key, err := storage.PutFile(
			ctx,
			s3Client,
			fmt.Sprintf("graphs/%s/documents", params.GraphID),
			file.Filename,
			documentID,
			src,
		)
		if err != nil {
			logger.Error("Failed to upload file", "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}

		correlationID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}
		msg := queue.IngestDocumentMsg{
			GraphID:        params.GraphID,
			DocumentID:     documentID,
			ObjectKey:      key,
			OntologyPrefix: ontologyPrefix,
			MaxChunkTokens: params.MaxChunkTokens,
			CorrelationID:  correlationID,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}
		if err := queue.PublishFIFO(ch, queue.IngestQueue, body); err != nil {
			logger.Error("Failed to publish to ingest_queue", "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Internal server error",
			})
		}

		queued = append(queued, queuedDocument{
			DocumentID:    documentID,
			Name:          file.Filename,
			ObjectKey:     key,
			CorrelationID: correlationID,
		})
	}

	return c.JSON(http.StatusAccepted, ingestResponse{
		Message:   "Documents queued for ingestion",
		GraphID:   params.GraphID,
		Documents: queued,
	})
}
