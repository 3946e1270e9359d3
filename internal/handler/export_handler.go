package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edusys-id/substitution-api/internal/models"
	"github.com/edusys-id/substitution-api/internal/service"
	"github.com/edusys-id/substitution-api/pkg/response"
)

// ExportHandler serves CSV and PDF downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs a new ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ConflictsCSV godoc
// @Summary Export schedule conflicts as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Schedule ID"
// @Success 200 {file} file
// @Router /exports/schedules/{id}/conflicts.csv [get]
func (h *ExportHandler) ConflictsCSV(c *gin.Context) {
	data, filename, err := h.exports.ConflictsCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, data, filename, "text/csv")
}

// SubstitutionsCSV godoc
// @Summary Export substitution requests as CSV
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Param teacher_id query string false "Filter by absent teacher"
// @Param priority query string false "Filter by priority"
// @Success 200 {file} file
// @Router /exports/substitutions.csv [get]
func (h *ExportHandler) SubstitutionsCSV(c *gin.Context) {
	filter := models.SubstitutionFilter{
		Status:    c.Query("status"),
		TeacherID: c.Query("teacher_id"),
		Priority:  c.Query("priority"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}

	data, filename, err := h.exports.SubstitutionsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, data, filename, "text/csv")
}

// DutyLetterPDF godoc
// @Summary Duty letter PDF for an applied substitution
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} file
// @Router /exports/substitutions/{id}/duty-letter.pdf [get]
func (h *ExportHandler) DutyLetterPDF(c *gin.Context) {
	data, filename, err := h.exports.DutyLetterPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, data, filename, "application/pdf")
}

func writeAttachment(c *gin.Context, data []byte, filename, mimeType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, mimeType, data)
}
