package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/models"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type slotRepository interface {
	List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, int, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Update(ctx context.Context, slot *models.TimeSlot) error
	UpdateStatus(ctx context.Context, id string, status models.SlotStatus) error
}

type scheduleTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type workloadRecomputer interface {
	Recompute(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error)
}

type conflictInvalidator interface {
	Invalidate(ctx context.Context, scheduleID string)
}

// CreateSlotRequest is the payload for scheduling a new slot.
type CreateSlotRequest struct {
	ScheduleID  string  `json:"schedule_id" validate:"required"`
	WeekStart   string  `json:"week_start" validate:"required"`
	Day         string  `json:"day_of_week" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	TeacherID   *string `json:"teacher_id" validate:"omitempty,uuid"`
	SubjectCode string  `json:"subject_code" validate:"required,max=20"`
}

// UpdateSlotRequest is the payload for rescheduling an existing slot.
type UpdateSlotRequest struct {
	Day       string  `json:"day_of_week" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
	TeacherID *string `json:"teacher_id" validate:"omitempty,uuid"`
}

// ScheduleService orchestrates slot lifecycle operations. Slot mutations
// cascade: the affected teacher-weeks are recomputed and the schedule's
// cached conflict report is invalidated.
type ScheduleService struct {
	slots     slotRepository
	teachers  scheduleTeacherRepository
	workload  workloadRecomputer
	conflicts conflictInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(slots slotRepository, teachers scheduleTeacherRepository, workload workloadRecomputer, conflicts conflictInvalidator, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		slots:     slots,
		teachers:  teachers,
		workload:  workload,
		conflicts: conflicts,
		validator: validate,
		logger:    logger,
	}
}

// List returns slots plus pagination data.
func (s *ScheduleService) List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, *models.Pagination, error) {
	slots, total, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return slots, pagination, nil
}

// Get returns a slot by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	return slot, nil
}

// Create schedules a new slot.
func (s *ScheduleService) Create(ctx context.Context, req CreateSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week_start must be YYYY-MM-DD")
	}
	startMinute, endMinute, err := parseSlotTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	slot := &models.TimeSlot{
		ScheduleID:  strings.TrimSpace(req.ScheduleID),
		WeekStart:   weekStart,
		Day:         models.Weekday(strings.ToUpper(req.Day)),
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Location:    normalizeOptional(req.Location),
		TeacherID:   req.TeacherID,
		SubjectCode: strings.ToUpper(strings.TrimSpace(req.SubjectCode)),
		Status:      models.SlotScheduled,
	}
	if err := slot.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.ensureTeacherExists(ctx, slot.TeacherID); err != nil {
		return nil, err
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}

	s.cascade(ctx, slot, nil)
	return slot, nil
}

// Update reschedules a slot. Cancelled and completed slots are immutable.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}

	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.Status == models.SlotCancelled || slot.Status == models.SlotCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cancelled or completed slots cannot be rescheduled")
	}

	startMinute, endMinute, err := parseSlotTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	previousTeacher := slot.Teacher()

	slot.Day = models.Weekday(strings.ToUpper(req.Day))
	slot.StartMinute = startMinute
	slot.EndMinute = endMinute
	slot.Location = normalizeOptional(req.Location)
	slot.TeacherID = req.TeacherID
	if err := slot.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.ensureTeacherExists(ctx, slot.TeacherID); err != nil {
		return nil, err
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
	}

	s.cascade(ctx, slot, &previousTeacher)
	return slot, nil
}

// Cancel marks a slot cancelled. Slots referenced by substitution history
// are never deleted; cancellation is the terminal mutation.
func (s *ScheduleService) Cancel(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch slot.Status {
	case models.SlotCancelled:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "slot is already cancelled")
	case models.SlotCompleted:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "completed slots cannot be cancelled")
	}

	if err := s.slots.UpdateStatus(ctx, id, models.SlotCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel slot")
	}
	slot.Status = models.SlotCancelled

	s.cascade(ctx, slot, nil)
	return slot, nil
}

// Complete marks a scheduled or substituted slot as taught.
func (s *ScheduleService) Complete(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.Status != models.SlotScheduled && slot.Status != models.SlotSubstituted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only scheduled or substituted slots can be completed")
	}

	if err := s.slots.UpdateStatus(ctx, id, models.SlotCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete slot")
	}
	slot.Status = models.SlotCompleted
	return slot, nil
}

// cascade refreshes the derived state a slot mutation touches. Failures are
// logged, not returned: the slot write already committed and the aggregates
// can be rebuilt by the next mutation.
func (s *ScheduleService) cascade(ctx context.Context, slot *models.TimeSlot, previousTeacher *string) {
	teacherIDs := map[string]struct{}{}
	if teacher := slot.Teacher(); teacher != "" {
		teacherIDs[teacher] = struct{}{}
	}
	if previousTeacher != nil && *previousTeacher != "" {
		teacherIDs[*previousTeacher] = struct{}{}
	}
	for teacherID := range teacherIDs {
		if _, err := s.workload.Recompute(ctx, teacherID, slot.WeekStart); err != nil {
			s.logger.Error("workload recompute failed",
				zap.String("teacher_id", teacherID),
				zap.String("slot_id", slot.ID),
				zap.Error(err))
		}
	}
	if s.conflicts != nil {
		s.conflicts.Invalidate(ctx, slot.ScheduleID)
	}
}

func (s *ScheduleService) ensureTeacherExists(ctx context.Context, teacherID *string) error {
	if teacherID == nil || *teacherID == "" {
		return nil
	}
	if _, err := s.teachers.FindByID(ctx, *teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "assigned teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}

func parseSlotTimes(start, end string) (int, int, error) {
	startMinute, err := models.ParseMinute(start)
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	endMinute, err := models.ParseMinute(end)
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return startMinute, endMinute, nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
