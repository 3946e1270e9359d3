package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusys-id/substitution-api/internal/models"
	"github.com/edusys-id/substitution-api/internal/service"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
	"github.com/edusys-id/substitution-api/pkg/response"
)

// TeacherHandler wires teacher, availability and workload services to HTTP
// routes.
type TeacherHandler struct {
	teachers     *service.TeacherService
	availability *service.AvailabilityService
	workloads    *service.WorkloadService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService, availability *service.AvailabilityService, workloads *service.WorkloadService) *TeacherHandler {
	return &TeacherHandler{
		teachers:     teachers,
		availability: availability,
		workloads:    workloads,
	}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Search by name/email/employment code"
// @Param status query string false "Filter by employment status"
// @Param subject query string false "Filter by subject qualification"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (full_name,employment_code,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter := models.TeacherFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Subject:   strings.ToUpper(strings.TrimSpace(c.Query("subject"))),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if status := models.TeacherStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown teacher status"))
			return
		}
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	teachers, pagination, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Get godoc
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Register teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.UpdateTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	var req service.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// UpdateStatus godoc
// @Summary Change teacher employment status
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body map[string]string true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/status [patch]
func (h *TeacherHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	teacher, err := h.teachers.UpdateStatus(c.Request.Context(), c.Param("id"), models.TeacherStatus(payload.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// ListAvailability godoc
// @Summary List teacher unavailability records
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *TeacherHandler) ListAvailability(c *gin.Context) {
	records, err := h.availability.ListByTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// CreateAvailability godoc
// @Summary Record teacher unavailability
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.CreateAvailabilityRequest true "Unavailability payload"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/availability [post]
func (h *TeacherHandler) CreateAvailability(c *gin.Context) {
	var req service.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	record, err := h.availability.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// DeleteAvailability godoc
// @Summary Delete teacher unavailability record
// @Tags Availability
// @Param id path string true "Teacher ID"
// @Param aid path string true "Availability ID"
// @Success 204
// @Router /teachers/{id}/availability/{aid} [delete]
func (h *TeacherHandler) DeleteAvailability(c *gin.Context) {
	if err := h.availability.Delete(c.Request.Context(), c.Param("aid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Workload godoc
// @Summary Weekly workload summary
// @Description Assigned minutes against the weekly cap for one teacher week
// @Tags Workload
// @Produce json
// @Param id path string true "Teacher ID"
// @Param week_start query string true "Week start date (YYYY-MM-DD, a Monday)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/workload [get]
func (h *TeacherHandler) Workload(c *gin.Context) {
	weekStart, err := parseWeekStart(c.Query("week_start"))
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.workloads.Summary(c.Request.Context(), c.Param("id"), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func parseWeekStart(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errWeekStartRequired
	}
	week, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errWeekStartFormat
	}
	return week.UTC(), nil
}

var (
	errWeekStartRequired = appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "week_start is required")
	errWeekStartFormat   = appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
)
