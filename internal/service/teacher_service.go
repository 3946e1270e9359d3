package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/models"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmploymentCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	UpdateStatus(ctx context.Context, id string, status models.TeacherStatus) error
}

// CreateTeacherRequest represents payload for registering teachers.
type CreateTeacherRequest struct {
	EmploymentCode   string   `json:"employment_code" validate:"required,max=20"`
	Email            string   `json:"email" validate:"required,email"`
	FullName         string   `json:"full_name" validate:"required"`
	Phone            *string  `json:"phone" validate:"omitempty,max=50"`
	Subjects         []string `json:"subjects" validate:"required,min=1,dive,required,max=20"`
	MaxWeeklyMinutes int      `json:"max_weekly_minutes" validate:"omitempty,gte=0"`
	MinWeeklyMinutes int      `json:"min_weekly_minutes" validate:"omitempty,gte=0"`
	HeadOfDepartment bool     `json:"head_of_department"`
}

// UpdateTeacherRequest represents payload for updating teachers.
type UpdateTeacherRequest struct {
	EmploymentCode   string   `json:"employment_code" validate:"required,max=20"`
	Email            string   `json:"email" validate:"required,email"`
	FullName         string   `json:"full_name" validate:"required"`
	Phone            *string  `json:"phone" validate:"omitempty,max=50"`
	Subjects         []string `json:"subjects" validate:"required,min=1,dive,required,max=20"`
	MaxWeeklyMinutes int      `json:"max_weekly_minutes" validate:"omitempty,gte=0"`
	MinWeeklyMinutes int      `json:"min_weekly_minutes" validate:"omitempty,gte=0"`
	HeadOfDepartment *bool    `json:"head_of_department"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return teachers, pagination, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	code := strings.TrimSpace(req.EmploymentCode)
	if err := s.ensureUniqueCode(ctx, code, ""); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		EmploymentCode:   code,
		Email:            strings.TrimSpace(req.Email),
		FullName:         strings.TrimSpace(req.FullName),
		Phone:            normalizeOptional(req.Phone),
		Subjects:         normalizeSubjects(req.Subjects),
		MaxWeeklyMinutes: req.MaxWeeklyMinutes,
		MinWeeklyMinutes: req.MinWeeklyMinutes,
		HeadOfDepartment: req.HeadOfDepartment,
		Status:           models.TeacherActive,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.EmploymentCode)
	if err := s.ensureUniqueCode(ctx, code, id); err != nil {
		return nil, err
	}

	teacher.EmploymentCode = code
	teacher.Email = strings.TrimSpace(req.Email)
	teacher.FullName = strings.TrimSpace(req.FullName)
	teacher.Phone = normalizeOptional(req.Phone)
	teacher.Subjects = normalizeSubjects(req.Subjects)
	teacher.MaxWeeklyMinutes = req.MaxWeeklyMinutes
	teacher.MinWeeklyMinutes = req.MinWeeklyMinutes
	if req.HeadOfDepartment != nil {
		teacher.HeadOfDepartment = *req.HeadOfDepartment
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// UpdateStatus transitions a teacher's employment status. Resigned teachers
// may not come back as active directly.
func (s *TeacherService) UpdateStatus(ctx context.Context, id string, status models.TeacherStatus) (*models.Teacher, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown teacher status")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if teacher.Status == models.TeacherResigned && status == models.TeacherActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "resigned teachers must be re-registered")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher status")
	}
	teacher.Status = status
	return teacher, nil
}

func (s *TeacherService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByEmploymentCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employment code uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "employment code already used")
	}
	return nil
}

func normalizeSubjects(subjects []string) []string {
	normalized := make([]string, 0, len(subjects))
	seen := map[string]struct{}{}
	for _, subject := range subjects {
		code := strings.ToUpper(strings.TrimSpace(subject))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
