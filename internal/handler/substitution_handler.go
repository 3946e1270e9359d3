package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edusys-id/substitution-api/internal/dto"
	"github.com/edusys-id/substitution-api/internal/models"
	"github.com/edusys-id/substitution-api/internal/service"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
	"github.com/edusys-id/substitution-api/pkg/response"
)

// SubstitutionHandler wires the substitution workflow to HTTP routes.
type SubstitutionHandler struct {
	substitutions *service.SubstitutionService
	schedules     *service.ScheduleService
}

// NewSubstitutionHandler constructs a new SubstitutionHandler.
func NewSubstitutionHandler(substitutions *service.SubstitutionService, schedules *service.ScheduleService) *SubstitutionHandler {
	return &SubstitutionHandler{substitutions: substitutions, schedules: schedules}
}

// List godoc
// @Summary List substitution requests
// @Tags Substitutions
// @Produce json
// @Param status query string false "Filter by status"
// @Param teacher_id query string false "Filter by absent teacher"
// @Param priority query string false "Filter by priority"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	filter := models.SubstitutionFilter{
		Status:    c.Query("status"),
		TeacherID: strings.TrimSpace(c.Query("teacher_id")),
		Priority:  c.Query("priority"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	requests, pagination, err := h.substitutions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get substitution request detail
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	request, err := h.substitutions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// The slot is decoration on the detail view; a failed lookup never hides
	// the request itself.
	slot, err := h.schedules.Get(c.Request.Context(), request.SlotID)
	if err != nil {
		slot = nil
	}
	response.JSON(c, http.StatusOK, dto.NewSubstitutionDetail(*request, slot), nil)
}

// ReportAbsence godoc
// @Summary Report teacher absence
// @Description Opens a substitution request, classifies its priority and
// @Description suggests the best eligible substitute
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body service.ReportAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Router /substitutions [post]
func (h *SubstitutionHandler) ReportAbsence(c *gin.Context) {
	var req service.ReportAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
		return
	}
	request, err := h.substitutions.ReportAbsence(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Candidates godoc
// @Summary Ranked substitute candidates for a request
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/candidates [get]
func (h *SubstitutionHandler) Candidates(c *gin.Context) {
	request, err := h.substitutions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	candidates, err := h.substitutions.FindEligible(c.Request.Context(), request.SlotID)
	if err != nil {
		response.Error(c, err)
		return
	}
	list := dto.CandidateList{
		RequestID:  request.ID,
		SlotID:     request.SlotID,
		Candidates: candidates,
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Apply godoc
// @Summary Apply a substitution
// @Description Assigns the suggested (or overridden) substitute to the slot
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.ApplySubstitutionRequest true "Apply payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/apply [post]
func (h *SubstitutionHandler) Apply(c *gin.Context) {
	var req service.ApplySubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid apply payload"))
		return
	}
	request, err := h.substitutions.Apply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject the suggested substitute
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/reject [post]
func (h *SubstitutionHandler) Reject(c *gin.Context) {
	request, err := h.substitutions.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Cancel godoc
// @Summary Cancel a substitution request
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	request, err := h.substitutions.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
