package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/models"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type availabilityRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error)
	Create(ctx context.Context, record *models.TeacherAvailability) error
	Delete(ctx context.Context, id string) error
}

type availabilityTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// CreateAvailabilityRequest records a block of time a teacher cannot teach.
// Omitting both times blocks the whole day.
type CreateAvailabilityRequest struct {
	Date      string  `json:"date" validate:"required"`
	StartTime *string `json:"start_time" validate:"omitempty"`
	EndTime   *string `json:"end_time" validate:"omitempty"`
	Reason    *string `json:"reason" validate:"omitempty,max=200"`
}

// AvailabilityService manages teacher unavailability records.
type AvailabilityService struct {
	repo      availabilityRepository
	teachers  availabilityTeacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, teachers availabilityTeacherRepository, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// ListByTeacher returns a teacher's unavailability records.
func (s *AvailabilityService) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return records, nil
}

// Create records an unavailability block for a teacher.
func (s *AvailabilityService) Create(ctx context.Context, teacherID string, req CreateAvailabilityRequest) (*models.TeacherAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if (req.StartTime == nil) != (req.EndTime == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time must be provided together")
	}

	record := &models.TeacherAvailability{
		TeacherID: teacherID,
		Date:      date,
		Reason:    normalizeOptional(req.Reason),
	}
	if req.StartTime != nil {
		startMinute, endMinute, err := parseSlotTimes(*req.StartTime, *req.EndTime)
		if err != nil {
			return nil, err
		}
		if startMinute >= endMinute {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
		}
		record.StartMinute = &startMinute
		record.EndMinute = &endMinute
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability record")
	}
	return record, nil
}

// Delete removes an unavailability record.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability record")
	}
	return nil
}

func (s *AvailabilityService) ensureTeacher(ctx context.Context, teacherID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}
