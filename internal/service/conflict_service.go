package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/engine"
	"github.com/edusys-id/substitution-api/internal/models"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type conflictSlotRepository interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.TimeSlot, error)
}

type conflictRepository interface {
	ReplaceForSchedule(ctx context.Context, scheduleID string, conflicts []models.Conflict) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error)
}

type conflictCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type reportAnnotator interface {
	AnnotateReport(ctx context.Context, report *models.ConflictReport)
}

// ConflictService runs conflict detection over schedules and manages the
// persisted conflict sets. Detection output depends only on the slot data
// and the engine config; cache and annotations sit outside that guarantee.
type ConflictService struct {
	slots     conflictSlotRepository
	conflicts conflictRepository
	cache     conflictCache
	annotator reportAnnotator
	metrics   *MetricsService
	cfg       engine.Config
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewConflictService constructs a ConflictService. cache, annotator and
// metrics may be nil.
func NewConflictService(slots conflictSlotRepository, conflicts conflictRepository, cache conflictCache, annotator reportAnnotator, metrics *MetricsService, cfg engine.Config, cacheTTL time.Duration, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ConflictService{
		slots:     slots,
		conflicts: conflicts,
		cache:     cache,
		annotator: annotator,
		metrics:   metrics,
		cfg:       cfg,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func conflictCacheKey(scheduleID string) string {
	return fmt.Sprintf("conflicts:schedule:%s", scheduleID)
}

// Detect runs a full detection pass over the schedule, replaces the stored
// conflict set and refreshes the cache.
func (s *ConflictService) Detect(ctx context.Context, scheduleID string) (*models.ConflictReport, error) {
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule has no slots")
	}

	refs := make([]*models.TimeSlot, len(slots))
	for i := range slots {
		refs[i] = &slots[i]
	}

	started := time.Now()
	report := engine.Detect(scheduleID, refs, s.cfg)
	s.metrics.ObserveDetection(time.Since(started), report.CountByType)

	if err := s.conflicts.ReplaceForSchedule(ctx, scheduleID, report.Conflicts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store conflicts")
	}

	if s.annotator != nil {
		s.annotator.AnnotateReport(ctx, &report)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, conflictCacheKey(scheduleID), report, s.cacheTTL); err != nil {
			s.logger.Warn("conflict report cache write failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}

	s.logger.Info("conflict detection completed",
		zap.String("schedule_id", scheduleID),
		zap.Int("slots", len(slots)),
		zap.Int("conflicts", len(report.Conflicts)))
	return &report, nil
}

// Report returns the current conflict report, serving from cache when fresh
// and rebuilding from the stored conflict set otherwise.
func (s *ConflictService) Report(ctx context.Context, scheduleID string) (*models.ConflictReport, error) {
	if s.cache != nil {
		var cached models.ConflictReport
		err := s.cache.Get(ctx, conflictCacheKey(scheduleID), &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("conflict report cache read failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	stored, err := s.conflicts.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflicts")
	}

	report := &models.ConflictReport{
		ScheduleID:  scheduleID,
		Conflicts:   stored,
		CountByType: map[string]int{},
		GeneratedAt: time.Now().UTC(),
	}
	for _, conflict := range stored {
		report.CountByType[string(conflict.Type)]++
	}
	return report, nil
}

// Invalidate drops the cached report for a schedule. Called after slot
// mutations so stale reports never outlive the data they describe.
func (s *ConflictService) Invalidate(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, conflictCacheKey(scheduleID)); err != nil {
		s.logger.Warn("conflict report cache invalidation failed", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}
