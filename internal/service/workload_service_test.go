package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/engine"
	"github.com/edusys-id/substitution-api/internal/models"
)

type workloadSlotRepoStub struct {
	mu    sync.Mutex
	slots map[string][]models.TimeSlot
	err   error
	calls int
}

func (s *workloadSlotRepoStub) ListByTeacherWeek(ctx context.Context, teacherID string, weekStart time.Time) ([]models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.slots[teacherID], s.err
}

type workloadRepoStub struct {
	mu       sync.Mutex
	upserted []*models.WeeklyWorkload
	stored   *models.WeeklyWorkload
	getErr   error
	snapshot map[string]int
}

func (s *workloadRepoStub) Upsert(ctx context.Context, workload *models.WeeklyWorkload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, workload)
	return nil
}

func (s *workloadRepoStub) Get(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	return s.stored, nil
}

func (s *workloadRepoStub) SnapshotForWeek(ctx context.Context, weekStart time.Time) (map[string]int, error) {
	return s.snapshot, nil
}

type workloadTeacherRepoStub struct {
	teacher *models.Teacher
	err     error
}

func (s *workloadTeacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.teacher == nil {
		return nil, sql.ErrNoRows
	}
	return s.teacher, nil
}

func weekOf(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
}

func TestWorkloadRecomputeCountsCommittedSlotsOnly(t *testing.T) {
	slots := &workloadSlotRepoStub{slots: map[string][]models.TimeSlot{
		"t1": {
			{ID: "s1", StartMinute: 540, EndMinute: 630, Status: models.SlotScheduled},
			{ID: "s2", StartMinute: 660, EndMinute: 720, Status: models.SlotSubstituted},
			{ID: "s3", StartMinute: 780, EndMinute: 900, Status: models.SlotCancelled},
		},
	}}
	repo := &workloadRepoStub{}
	svc := NewWorkloadService(slots, repo, &workloadTeacherRepoStub{}, engine.DefaultConfig(), nil)

	workload, err := svc.Recompute(context.Background(), "t1", weekOf(t))
	require.NoError(t, err)
	// 90 scheduled + 60 substituted; the cancelled slot contributes nothing.
	assert.Equal(t, 150, workload.AssignedMinutes)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "t1", repo.upserted[0].TeacherID)
}

func TestWorkloadRecomputeSerializesPerKey(t *testing.T) {
	slots := &workloadSlotRepoStub{slots: map[string][]models.TimeSlot{
		"t1": {{ID: "s1", StartMinute: 540, EndMinute: 600, Status: models.SlotScheduled}},
	}}
	repo := &workloadRepoStub{}
	svc := NewWorkloadService(slots, repo, &workloadTeacherRepoStub{}, engine.DefaultConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Recompute(context.Background(), "t1", weekOf(t))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, slots.calls)
	assert.Len(t, repo.upserted, 16)
	for _, workload := range repo.upserted {
		assert.Equal(t, 60, workload.AssignedMinutes)
	}
}

func TestWorkloadSummaryMissingAggregateMeansZero(t *testing.T) {
	teacher := &models.Teacher{ID: "t1", MaxWeeklyMinutes: 900}
	svc := NewWorkloadService(&workloadSlotRepoStub{}, &workloadRepoStub{}, &workloadTeacherRepoStub{teacher: teacher}, engine.DefaultConfig(), nil)

	summary, err := svc.Summary(context.Background(), "t1", weekOf(t))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AssignedMinutes)
	assert.Equal(t, 900, summary.MaxWeeklyMinutes)
	assert.Equal(t, 900, summary.RemainingMinutes)
	assert.False(t, summary.OverCap)
}

func TestWorkloadSummaryFallsBackToConfigCap(t *testing.T) {
	teacher := &models.Teacher{ID: "t1"}
	repo := &workloadRepoStub{stored: &models.WeeklyWorkload{TeacherID: "t1", AssignedMinutes: 1140}}
	svc := NewWorkloadService(&workloadSlotRepoStub{}, repo, &workloadTeacherRepoStub{teacher: teacher}, engine.DefaultConfig(), nil)

	summary, err := svc.Summary(context.Background(), "t1", weekOf(t))
	require.NoError(t, err)
	assert.Equal(t, 1080, summary.MaxWeeklyMinutes)
	assert.Equal(t, -60, summary.RemainingMinutes)
	assert.True(t, summary.OverCap)
}

func TestWorkloadSummaryUnknownTeacher(t *testing.T) {
	svc := NewWorkloadService(&workloadSlotRepoStub{}, &workloadRepoStub{}, &workloadTeacherRepoStub{}, engine.DefaultConfig(), nil)

	_, err := svc.Summary(context.Background(), "ghost", weekOf(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher not found")
}
