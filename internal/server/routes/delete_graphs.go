package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"trellis/internal/queue"
	"trellis/internal/server/middleware"
	"trellis/pkg/logger"
)

// DeleteGraphHandler queues deletion of a graph and its stored objects.
func DeleteGraphHandler(c echo.Context) error {
	type deleteParams struct {
		GraphID string `param:"graph_id" validate:"required"`
	}

	type deleteResponse struct {
		Message       string `json:"message"`
		GraphID       string `json:"graph_id,omitempty"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	params := new(deleteParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteResponse{
			Message: "Invalid request body",
		})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.DeleteGraphMsg{
		GraphID:       params.GraphID,
		ObjectPrefix:  fmt.Sprintf("graphs/%s", params.GraphID),
		CorrelationID: correlationID,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.DeleteQueue, body); err != nil {
		logger.Error("Failed to publish to delete_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, deleteResponse{
		Message:       "Graph deletion queued",
		GraphID:       params.GraphID,
		CorrelationID: correlationID,
	})
}
