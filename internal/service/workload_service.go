package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/engine"
	"github.com/edusys-id/substitution-api/internal/models"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type workloadSlotRepository interface {
	ListByTeacherWeek(ctx context.Context, teacherID string, weekStart time.Time) ([]models.TimeSlot, error)
}

type workloadRepository interface {
	Upsert(ctx context.Context, workload *models.WeeklyWorkload) error
	Get(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error)
	SnapshotForWeek(ctx context.Context, weekStart time.Time) (map[string]int, error)
}

type workloadTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// WorkloadService owns the weekly workload aggregates. Every slot mutation
// that changes a teacher's committed minutes funnels through Recompute so
// the aggregate never drifts from the slot table.
type WorkloadService struct {
	slots    workloadSlotRepository
	workload workloadRepository
	teachers workloadTeacherRepository
	cfg      engine.Config
	logger   *zap.Logger

	// mu guards locks; each (teacher, week) key gets its own mutex so
	// concurrent recomputes for the same key serialize while unrelated
	// keys proceed in parallel.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWorkloadService constructs a WorkloadService.
func NewWorkloadService(slots workloadSlotRepository, workload workloadRepository, teachers workloadTeacherRepository, cfg engine.Config, logger *zap.Logger) *WorkloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{
		slots:    slots,
		workload: workload,
		teachers: teachers,
		cfg:      cfg,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *WorkloadService) keyLock(teacherID string, weekStart time.Time) *sync.Mutex {
	key := fmt.Sprintf("%s|%s", teacherID, weekStart.UTC().Format("2006-01-02"))
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Recompute rebuilds the aggregate for one teacher-week from the slot table
// and upserts it. Calls for the same teacher-week serialize.
func (s *WorkloadService) Recompute(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error) {
	lock := s.keyLock(teacherID, weekStart)
	lock.Lock()
	defer lock.Unlock()

	slots, err := s.slots.ListByTeacherWeek(ctx, teacherID, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher slots")
	}

	refs := make([]*models.TimeSlot, len(slots))
	for i := range slots {
		refs[i] = &slots[i]
	}

	workload := &models.WeeklyWorkload{
		TeacherID:       teacherID,
		WeekStart:       weekStart,
		AssignedMinutes: engine.SumAssignedMinutes(refs),
	}
	if err := s.workload.Upsert(ctx, workload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store workload")
	}

	s.logger.Debug("workload recomputed",
		zap.String("teacher_id", teacherID),
		zap.Time("week_start", weekStart),
		zap.Int("assigned_minutes", workload.AssignedMinutes))
	return workload, nil
}

// Summary returns the workload aggregate enriched with the teacher's cap.
// A missing aggregate row means zero committed minutes, not an error.
func (s *WorkloadService) Summary(ctx context.Context, teacherID string, weekStart time.Time) (*models.WorkloadSummary, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	assigned := 0
	workload, err := s.workload.Get(ctx, teacherID, weekStart)
	switch {
	case err == sql.ErrNoRows:
		// No slots assigned this week yet.
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workload")
	default:
		assigned = workload.AssignedMinutes
	}

	capMinutes := teacher.MaxWeeklyMinutes
	if capMinutes <= 0 {
		capMinutes = s.cfg.MaxWeeklyMinutes
	}
	if capMinutes <= 0 {
		capMinutes = engine.DefaultMaxWeeklyMinutes
	}

	return &models.WorkloadSummary{
		TeacherID:        teacherID,
		WeekStart:        weekStart,
		AssignedMinutes:  assigned,
		MaxWeeklyMinutes: capMinutes,
		RemainingMinutes: engine.RemainingCapacity(assigned, capMinutes),
		OverCap:          assigned > capMinutes,
	}, nil
}

// Snapshot returns assigned minutes per teacher for a week, for the ranker.
func (s *WorkloadService) Snapshot(ctx context.Context, weekStart time.Time) (map[string]int, error) {
	snapshot, err := s.workload.SnapshotForWeek(ctx, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workload snapshot")
	}
	return snapshot, nil
}
