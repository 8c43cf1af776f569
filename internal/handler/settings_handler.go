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

type settingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, actor *models.JWTClaims, req dto.UpdateSettingRequest) (*models.Settings, error)
	AddSemester(ctx context.Context, actor *models.JWTClaims, req dto.AddSemesterRequest) (*models.Settings, error)
}

// SettingsHandler exposes school-wide settings.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get godoc
// @Summary Get settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update one setting
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSettingRequest true "Setting"
// @Success 200 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.service.Update(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// AddSemester godoc
// @Summary Add a semester
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.AddSemesterRequest true "Semester"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /settings/semesters [post]
func (h *SettingsHandler) AddSemester(c *gin.Context) {
	var req dto.AddSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "semester is required"))
		return
	}
	settings, err := h.service.AddSemester(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, settings)
}
