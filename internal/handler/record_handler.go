package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bbsmart-api/internal/models"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
	"github.com/noah-isme/bbsmart-api/pkg/response"
)

type recordService interface {
	List(ctx context.Context, resource string) ([]json.RawMessage, error)
	Save(ctx context.Context, actor *models.JWTClaims, resource string, payload json.RawMessage) (json.RawMessage, error)
	SaveBatch(ctx context.Context, actor *models.JWTClaims, resource string, payloads []json.RawMessage) ([]json.RawMessage, error)
	Delete(ctx context.Context, actor *models.JWTClaims, resource, id string) error
}

// RecordHandler exposes the generic document store.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler builds a new handler.
func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// List godoc
// @Summary List documents of a resource
// @Tags Records
// @Produce json
// @Param resource path string true "Resource name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{resource} [get]
func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), c.Param("resource"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, map[string]interface{}{"count": len(records)})
}

// Create godoc
// @Summary Create or replace one document
// @Tags Records
// @Accept json
// @Produce json
// @Param resource path string true "Resource name"
// @Param payload body object true "Document; an id is generated when missing"
// @Success 201 {object} response.Envelope
// @Router /records/{resource} [post]
func (h *RecordHandler) Create(c *gin.Context) {
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}
	saved, err := h.service.Save(c.Request.Context(), claimsFromContext(c), c.Param("resource"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// CreateBatch godoc
// @Summary Create or replace many documents in one write
// @Tags Records
// @Accept json
// @Produce json
// @Param resource path string true "Resource name"
// @Param payload body []object true "Documents"
// @Success 201 {object} response.Envelope
// @Router /records/{resource}/batch [post]
func (h *RecordHandler) CreateBatch(c *gin.Context) {
	var payloads []json.RawMessage
	if err := c.ShouldBindJSON(&payloads); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "batch payload must be a JSON array"))
		return
	}
	saved, err := h.service.SaveBatch(c.Request.Context(), claimsFromContext(c), c.Param("resource"), payloads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, saved, nil, map[string]interface{}{"count": len(saved)})
}

// Delete godoc
// @Summary Delete one document
// @Tags Records
// @Param resource path string true "Resource name"
// @Param id path string true "Document id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /records/{resource}/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("resource"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
