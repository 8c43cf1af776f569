package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bbsmart-api/internal/dto"
	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/service"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
	"github.com/noah-isme/bbsmart-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, actor *models.JWTClaims) ([]models.Student, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Student, error)
}

type transcriptService interface {
	Build(ctx context.Context, actor *models.JWTClaims, studentID, semester string) (*models.Transcript, error)
	Export(ctx context.Context, actor *models.JWTClaims, studentID, semester, format string) (*service.TranscriptFile, error)
}

// StudentHandler serves the role-filtered student views.
type StudentHandler struct {
	students    studentService
	transcripts transcriptService
}

// NewStudentHandler builds a new handler.
func NewStudentHandler(students studentService, transcripts transcriptService) *StudentHandler {
	return &StudentHandler{students: students, transcripts: transcripts}
}

// List godoc
// @Summary List students visible to the caller
// @Description Staff see every student, a teacher their advisees, a student only themselves.
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil, map[string]interface{}{"count": len(students)})
}

// Get godoc
// @Summary Get a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Transcript godoc
// @Summary Student transcript and graduation progress
// @Tags Students
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param semester query string false "Limit to one semester, e.g. 1/2567"
// @Param format query string false "json (default), csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *StudentHandler) Transcript(c *gin.Context) {
	var query dto.TranscriptQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" || format == service.FormatJSON {
		transcript, err := h.transcripts.Build(c.Request.Context(), claimsFromContext(c), c.Param("id"), query.Semester)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, transcript, nil)
		return
	}

	file, err := h.transcripts.Export(c.Request.Context(), claimsFromContext(c), c.Param("id"), query.Semester, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
