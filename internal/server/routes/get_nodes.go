package routes

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"trellis/internal/server/middleware"
	"trellis/pkg/logger"
)

const maxPageSize = 500

// GetNodesHandler returns a page of persisted nodes for a graph.
func GetNodesHandler(c echo.Context) error {
	type nodesParams struct {
		GraphID string `param:"graph_id" validate:"required"`
		Limit   int    `query:"limit"`
		Offset  int    `query:"offset"`
	}

	type nodeRow struct {
		ID         uuid.UUID      `json:"id"`
		Properties map[string]any `json:"properties"`
	}

	type nodesResponse struct {
		Message string    `json:"message,omitempty"`
		GraphID string    `json:"graph_id,omitempty"`
		Nodes   []nodeRow `json:"nodes"`
		Total   int64     `json:"total"`
	}

	params := new(nodesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, nodesResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, nodesResponse{
			Message: "Invalid request body",
		})
	}
	if params.Limit <= 0 || params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn

	var total int64
	err := conn.QueryRow(ctx,
		`SELECT count(*) FROM graph_nodes WHERE graph_id = $1`,
		params.GraphID,
	).Scan(&total)
	if err != nil {
		logger.Error("Failed to count nodes", "err", err)
		return c.JSON(http.StatusInternalServerError, nodesResponse{
			Message: "Internal server error",
		})
	}

	rows, err := conn.Query(ctx,
		`SELECT public_id, properties FROM graph_nodes
		 WHERE graph_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		params.GraphID, params.Limit, params.Offset,
	)
	if err != nil {
		logger.Error("Failed to query nodes", "err", err)
		return c.JSON(http.StatusInternalServerError, nodesResponse{
			Message: "Internal server error",
		})
	}
	defer rows.Close()

	nodes := make([]nodeRow, 0, params.Limit)
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(&row.ID, &row.Properties); err != nil {
			logger.Error("Failed to scan node", "err", err)
			return c.JSON(http.StatusInternalServerError, nodesResponse{
				Message: "Internal server error",
			})
		}
		nodes = append(nodes, row)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Failed to read nodes", "err", err)
		return c.JSON(http.StatusInternalServerError, nodesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, nodesResponse{
		GraphID: params.GraphID,
		Nodes:   nodes,
		Total:   total,
	})
}
