package routes

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"trellis/internal/server/middleware"
	"trellis/internal/storage"
	"trellis/pkg/logger"
)

// UploadOntologyHandler stores RDF/XML ontology files under the graph's
// ontology prefix. Ingest jobs with use_ontology set load everything
// under this prefix into the canonicalization resolver.
func UploadOntologyHandler(c echo.Context) error {
	type ontologyParams struct {
		GraphID string `param:"graph_id" validate:"required"`
	}

	type ontologyResponse struct {
		Message string   `json:"message"`
		Prefix  string   `json:"prefix,omitempty"`
		Keys    []string `json:"keys,omitempty"`
	}

	params := new(ontologyParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, ontologyResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, ontologyResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ontologyResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, ontologyResponse{
			Message: "No files provided",
		})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3
	prefix := fmt.Sprintf("graphs/%s/ontology", params.GraphID)

	keys := make([]string, 0, len(uploads))
	for _, file := range uploads {
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, ontologyResponse{
				Message: "Could not open file",
			})
		}
		defer src.Close()

		fileID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ontologyResponse{
				Message: "Internal server error",
			})
		}
		key, err := storage.PutFile(ctx, s3Client, prefix, file.Filename, fileID, src)
		if err != nil {
			logger.Error("Failed to upload ontology file", "err", err)
			return c.JSON(http.StatusInternalServerError, ontologyResponse{
				Message: "Internal server error",
			})
		}
		keys = append(keys, key)
	}

	return c.JSON(http.StatusOK, ontologyResponse{
		Message: "Ontology uploaded successfully",
		Prefix:  prefix,
		Keys:    keys,
	})
}
