package server

import (
	"github.com/labstack/echo/v4"

	"trellis/internal/server/middleware"
	"trellis/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Ingestion routes
	apiRoutes.POST("/graphs/:graph_id/documents", routes.IngestDocumentsHandler, middleware.RequirePermission("graph.ingest"))
	apiRoutes.POST("/graphs/:graph_id/ontology", routes.UploadOntologyHandler, middleware.RequirePermission("graph.ingest"))

	// Graph read routes
	apiRoutes.GET("/graphs/:graph_id/nodes", routes.GetNodesHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/graphs/:graph_id/edges", routes.GetEdgesHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/graphs/:graph_id/stats", routes.GetGraphStatsHandler, middleware.RequirePermission("graph.view"))

	// Graph lifecycle routes
	apiRoutes.DELETE("/graphs/:graph_id", routes.DeleteGraphHandler, middleware.RequirePermission("graph.delete"))
}
