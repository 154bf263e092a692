package routes

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"trellis/internal/server/middleware"
	"trellis/pkg/logger"
)

// GetEdgesHandler returns a page of persisted edges for a graph,
// optionally filtered to one source node.
func GetEdgesHandler(c echo.Context) error {
	type edgesParams struct {
		GraphID string `param:"graph_id" validate:"required"`
		Source  string `query:"source"`
		Limit   int    `query:"limit"`
		Offset  int    `query:"offset"`
	}

	type edgeRow struct {
		SourceID   uuid.UUID      `json:"source_id"`
		TargetID   uuid.UUID      `json:"target_id"`
		Name       string         `json:"name"`
		Properties map[string]any `json:"properties"`
	}

	type edgesResponse struct {
		Message string    `json:"message,omitempty"`
		GraphID string    `json:"graph_id,omitempty"`
		Edges   []edgeRow `json:"edges"`
		Total   int64     `json:"total"`
	}

	params := new(edgesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, edgesResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, edgesResponse{
			Message: "Invalid request body",
		})
	}
	if params.Limit <= 0 || params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	var sourceID *uuid.UUID
	if params.Source != "" {
		parsed, err := uuid.Parse(params.Source)
		if err != nil {
			return c.JSON(http.StatusBadRequest, edgesResponse{
				Message: "Invalid source node id",
			})
		}
		sourceID = &parsed
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn

	countSQL := `SELECT count(*) FROM graph_edges WHERE graph_id = $1`
	listSQL := `SELECT source_id, target_id, name, properties FROM graph_edges
	 WHERE graph_id = $1 ORDER BY id LIMIT $2 OFFSET $3`
	countArgs := []any{params.GraphID}
	listArgs := []any{params.GraphID, params.Limit, params.Offset}
	if sourceID != nil {
		countSQL = `SELECT count(*) FROM graph_edges WHERE graph_id = $1 AND source_id = $2`
		listSQL = `SELECT source_id, target_id, name, properties FROM graph_edges
		 WHERE graph_id = $1 AND source_id = $2 ORDER BY id LIMIT $3 OFFSET $4`
		countArgs = []any{params.GraphID, *sourceID}
		listArgs = []any{params.GraphID, *sourceID, params.Limit, params.Offset}
	}

	var total int64
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error("Failed to count edges", "err", err)
		return c.JSON(http.StatusInternalServerError, edgesResponse{
			Message: "Internal server error",
		})
	}

	rows, err := conn.Query(ctx, listSQL, listArgs...)
	if err != nil {
		logger.Error("Failed to query edges", "err", err)
		return c.JSON(http.StatusInternalServerError, edgesResponse{
			Message: "Internal server error",
		})
	}
	defer rows.Close()

	edges := make([]edgeRow, 0, params.Limit)
	for rows.Next() {
		var row edgeRow
		if err := rows.Scan(&row.SourceID, &row.TargetID, &row.Name, &row.Properties); err != nil {
			logger.Error("Failed to scan edge", "err", err)
			return c.JSON(http.StatusInternalServerError, edgesResponse{
				Message: "Internal server error",
			})
		}
		edges = append(edges, row)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Failed to read edges", "err", err)
		return c.JSON(http.StatusInternalServerError, edgesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, edgesResponse{
		GraphID: params.GraphID,
		Edges:   edges,
		Total:   total,
	})
}
