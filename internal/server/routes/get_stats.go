package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trellis/internal/server/middleware"
	"trellis/pkg/logger"
)

// GetGraphStatsHandler returns row counts for everything persisted
// under a graph.
func GetGraphStatsHandler(c echo.Context) error {
	type statsParams struct {
		GraphID string `param:"graph_id" validate:"required"`
	}

	type statsResponse struct {
		Message    string `json:"message,omitempty"`
		GraphID    string `json:"graph_id,omitempty"`
		Nodes      int64  `json:"nodes"`
		Edges      int64  `json:"edges"`
		Chunks     int64  `json:"chunks"`
		DataPoints int64  `json:"data_points"`
	}

	params := new(statsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, statsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, statsResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn

	resp := statsResponse{GraphID: params.GraphID}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"graph_nodes", &resp.Nodes},
		{"graph_edges", &resp.Edges},
		{"document_chunks", &resp.Chunks},
		{"data_points", &resp.DataPoints},
	}
	for _, count := range counts {
		err := conn.QueryRow(ctx,
			`SELECT count(*) FROM `+count.table+` WHERE graph_id = $1`,
			params.GraphID,
		).Scan(count.dest)
		if err != nil {
			logger.Error("Failed to count rows", "table", count.table, "err", err)
			return c.JSON(http.StatusInternalServerError, statsResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusOK, resp)
}
