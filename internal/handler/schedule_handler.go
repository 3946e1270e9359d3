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

// ScheduleHandler wires slot management and conflict detection to HTTP
// routes.
type ScheduleHandler struct {
	schedules *service.ScheduleService
	conflicts *service.ConflictService
}

// NewScheduleHandler constructs a new ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService, conflicts *service.ConflictService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, conflicts: conflicts}
}

// ListSlots godoc
// @Summary List time slots
// @Tags Schedules
// @Produce json
// @Param schedule_id query string false "Filter by schedule"
// @Param teacher_id query string false "Filter by assigned teacher"
// @Param day query string false "Filter by day of week"
// @Param status query string false "Filter by slot status"
// @Param week_start query string false "Filter by week start (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /slots [get]
func (h *ScheduleHandler) ListSlots(c *gin.Context) {
	filter := models.SlotFilter{
		ScheduleID: strings.TrimSpace(c.Query("schedule_id")),
		TeacherID:  strings.TrimSpace(c.Query("teacher_id")),
		Day:        strings.ToUpper(strings.TrimSpace(c.Query("day"))),
		Status:     c.Query("status"),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}
	if raw := c.Query("week_start"); raw != "" {
		week, err := parseWeekStart(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.WeekStart = &week
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	slots, pagination, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSlotViews(slots), pagination)
}

// GetSlot godoc
// @Summary Get slot detail
// @Tags Schedules
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id} [get]
func (h *ScheduleHandler) GetSlot(c *gin.Context) {
	slot, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSlotView(*slot), nil)
}

// CreateSlot godoc
// @Summary Create time slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /slots [post]
func (h *ScheduleHandler) CreateSlot(c *gin.Context) {
	var req service.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewSlotView(*slot))
}

// UpdateSlot godoc
// @Summary Update time slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body service.UpdateSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Router /slots/{id} [put]
func (h *ScheduleHandler) UpdateSlot(c *gin.Context) {
	var req service.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.schedules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSlotView(*slot), nil)
}

// CancelSlot godoc
// @Summary Cancel time slot
// @Tags Schedules
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/cancel [post]
func (h *ScheduleHandler) CancelSlot(c *gin.Context) {
	slot, err := h.schedules.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSlotView(*slot), nil)
}

// CompleteSlot godoc
// @Summary Mark time slot completed
// @Tags Schedules
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slots/{id}/complete [post]
func (h *ScheduleHandler) CompleteSlot(c *gin.Context) {
	slot, err := h.schedules.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSlotView(*slot), nil)
}

// Timetable godoc
// @Summary Weekly timetable for a schedule
// @Description Slots grouped per teaching day in start order
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Param week_start query string false "Week start date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/timetable [get]
func (h *ScheduleHandler) Timetable(c *gin.Context) {
	filter := models.SlotFilter{
		ScheduleID: c.Param("id"),
		Page:       1,
		PageSize:   500,
	}
	if raw := c.Query("week_start"); raw != "" {
		week, err := parseWeekStart(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.WeekStart = &week
	}

	slots, _, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GroupByDay(slots), nil)
}

// DetectConflicts godoc
// @Summary Run conflict detection for a schedule
// @Description Detects time, location, instructor and travel-time conflicts
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/conflicts/detect [post]
func (h *ScheduleHandler) DetectConflicts(c *gin.Context) {
	report, err := h.conflicts.Detect(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ConflictReport godoc
// @Summary Latest conflict report for a schedule
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/conflicts [get]
func (h *ScheduleHandler) ConflictReport(c *gin.Context) {
	report, err := h.conflicts.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
