package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bbsmart-api/internal/dto"
	"github.com/noah-isme/bbsmart-api/internal/models"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
	"github.com/noah-isme/bbsmart-api/pkg/response"
)

type importService interface {
	Import(ctx context.Context, actor *models.JWTClaims, kind string, req dto.ImportRequest) (*dto.ImportResult, error)
	Preview(ctx context.Context, actor *models.JWTClaims, kind string, req dto.ImportRequest) (*dto.ImportResult, error)
}

// ImportHandler exposes batch import endpoints.
type ImportHandler struct {
	service importService
}

// NewImportHandler builds a new handler.
func NewImportHandler(service importService) *ImportHandler {
	return &ImportHandler{service: service}
}

// Import godoc
// @Summary Apply a batch import
// @Description Reconciles STUDENT, GRADE, ACTIVITY or ADVISOR records into the student collection. With dryRun=true nothing is persisted.
// @Tags Imports
// @Accept json
// @Produce json
// @Param kind path string true "Import kind" Enums(STUDENT, GRADE, ACTIVITY, ADVISOR)
// @Param dryRun query bool false "Preview without persisting"
// @Param payload body dto.ImportRequest true "Import batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /imports/{kind} [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}

	run := h.service.Import
	if queryBool(c, "dryRun") {
		run = h.service.Preview
	}
	result, err := run(c.Request.Context(), claimsFromContext(c), c.Param("kind"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{
		"updatedCount": result.UpdatedCount,
		"skippedCount": len(result.Skipped),
	})
}
