package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/models"
)

type slotRepoStub struct {
	stored   *models.TimeSlot
	created  []*models.TimeSlot
	updated  []*models.TimeSlot
	statuses []models.SlotStatus
}

func (s *slotRepoStub) List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, int, error) {
	if s.stored == nil {
		return nil, 0, nil
	}
	return []models.TimeSlot{*s.stored}, 1, nil
}

func (s *slotRepoStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.stored
	return &copied, nil
}

func (s *slotRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.TimeSlot, error) {
	if s.stored == nil {
		return nil, nil
	}
	return []models.TimeSlot{*s.stored}, nil
}

func (s *slotRepoStub) Create(ctx context.Context, slot *models.TimeSlot) error {
	slot.ID = "slot-new"
	s.created = append(s.created, slot)
	return nil
}

func (s *slotRepoStub) Update(ctx context.Context, slot *models.TimeSlot) error {
	s.updated = append(s.updated, slot)
	return nil
}

func (s *slotRepoStub) UpdateStatus(ctx context.Context, id string, status models.SlotStatus) error {
	s.statuses = append(s.statuses, status)
	return nil
}

type scheduleTeacherRepoStub struct {
	known map[string]bool
}

func (s *scheduleTeacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if s.known[id] {
		return &models.Teacher{ID: id, Status: models.TeacherActive}, nil
	}
	return nil, sql.ErrNoRows
}

type recomputerStub struct {
	calls []string
}

func (s *recomputerStub) Recompute(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error) {
	s.calls = append(s.calls, teacherID)
	return &models.WeeklyWorkload{TeacherID: teacherID, WeekStart: weekStart}, nil
}

type invalidatorStub struct {
	schedules []string
}

func (s *invalidatorStub) Invalidate(ctx context.Context, scheduleID string) {
	s.schedules = append(s.schedules, scheduleID)
}

func validCreateSlotRequest() CreateSlotRequest {
	teacher := "22222222-2222-2222-2222-222222222222"
	room := "Room101"
	return CreateSlotRequest{
		ScheduleID:  "sched-1",
		WeekStart:   "2025-09-01",
		Day:         "monday",
		StartTime:   "09:00",
		EndTime:     "10:30",
		Location:    &room,
		TeacherID:   &teacher,
		SubjectCode: "math",
	}
}

func TestScheduleCreateNormalizesAndCascades(t *testing.T) {
	slots := &slotRepoStub{}
	recomputer := &recomputerStub{}
	invalidator := &invalidatorStub{}
	teachers := &scheduleTeacherRepoStub{known: map[string]bool{"22222222-2222-2222-2222-222222222222": true}}
	svc := NewScheduleService(slots, teachers, recomputer, invalidator, nil, nil)

	slot, err := svc.Create(context.Background(), validCreateSlotRequest())
	require.NoError(t, err)
	assert.Equal(t, models.Monday, slot.Day)
	assert.Equal(t, 540, slot.StartMinute)
	assert.Equal(t, 630, slot.EndMinute)
	assert.Equal(t, "MATH", slot.SubjectCode)
	assert.Equal(t, models.SlotScheduled, slot.Status)
	require.Len(t, slots.created, 1)
	assert.Equal(t, []string{"22222222-2222-2222-2222-222222222222"}, recomputer.calls)
	assert.Equal(t, []string{"sched-1"}, invalidator.schedules)
}

func TestScheduleCreateRejectsOutsideBusinessHours(t *testing.T) {
	svc := NewScheduleService(&slotRepoStub{}, &scheduleTeacherRepoStub{}, &recomputerStub{}, nil, nil, nil)

	req := validCreateSlotRequest()
	req.TeacherID = nil
	req.StartTime = "08:00"
	req.EndTime = "09:00"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "business hours")
}

func TestScheduleCreateRejectsSunday(t *testing.T) {
	svc := NewScheduleService(&slotRepoStub{}, &scheduleTeacherRepoStub{}, &recomputerStub{}, nil, nil, nil)

	req := validCreateSlotRequest()
	req.TeacherID = nil
	req.Day = "SUNDAY"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a teaching day")
}

func TestScheduleCreateRejectsUnknownTeacher(t *testing.T) {
	svc := NewScheduleService(&slotRepoStub{}, &scheduleTeacherRepoStub{}, &recomputerStub{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreateSlotRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher does not exist")
}

func TestScheduleUpdateRecomputesBothTeachers(t *testing.T) {
	previous := "33333333-3333-3333-3333-333333333333"
	replacement := "22222222-2222-2222-2222-222222222222"
	slots := &slotRepoStub{stored: &models.TimeSlot{
		ID:          "slot-1",
		ScheduleID:  "sched-1",
		WeekStart:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Day:         models.Monday,
		StartMinute: 540,
		EndMinute:   630,
		TeacherID:   &previous,
		SubjectCode: "MATH",
		Status:      models.SlotScheduled,
	}}
	recomputer := &recomputerStub{}
	teachers := &scheduleTeacherRepoStub{known: map[string]bool{replacement: true}}
	svc := NewScheduleService(slots, teachers, recomputer, nil, nil, nil)

	_, err := svc.Update(context.Background(), "slot-1", UpdateSlotRequest{
		Day:       "MONDAY",
		StartTime: "10:00",
		EndTime:   "11:00",
		TeacherID: &replacement,
	})
	require.NoError(t, err)
	require.Len(t, slots.updated, 1)
	sort.Strings(recomputer.calls)
	assert.Equal(t, []string{replacement, previous}, recomputer.calls)
}

func TestScheduleUpdateRejectsCancelledSlot(t *testing.T) {
	slots := &slotRepoStub{stored: &models.TimeSlot{
		ID:     "slot-1",
		Status: models.SlotCancelled,
	}}
	svc := NewScheduleService(slots, &scheduleTeacherRepoStub{}, &recomputerStub{}, nil, nil, nil)

	_, err := svc.Update(context.Background(), "slot-1", UpdateSlotRequest{
		Day:       "MONDAY",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be rescheduled")
}

func TestScheduleCancelTransitions(t *testing.T) {
	teacher := "22222222-2222-2222-2222-222222222222"
	slots := &slotRepoStub{stored: &models.TimeSlot{
		ID:         "slot-1",
		ScheduleID: "sched-1",
		WeekStart:  time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		TeacherID:  &teacher,
		Status:     models.SlotScheduled,
	}}
	recomputer := &recomputerStub{}
	svc := NewScheduleService(slots, &scheduleTeacherRepoStub{}, recomputer, nil, nil, nil)

	slot, err := svc.Cancel(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotCancelled, slot.Status)
	assert.Equal(t, []models.SlotStatus{models.SlotCancelled}, slots.statuses)
	assert.Equal(t, []string{teacher}, recomputer.calls)

	slots.stored.Status = models.SlotCancelled
	_, err = svc.Cancel(context.Background(), "slot-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already cancelled")

	slots.stored.Status = models.SlotCompleted
	_, err = svc.Cancel(context.Background(), "slot-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completed slots")
}

func TestScheduleCompleteTransitions(t *testing.T) {
	slots := &slotRepoStub{stored: &models.TimeSlot{ID: "slot-1", Status: models.SlotSubstituted}}
	svc := NewScheduleService(slots, &scheduleTeacherRepoStub{}, &recomputerStub{}, nil, nil, nil)

	slot, err := svc.Complete(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, models.SlotCompleted, slot.Status)

	slots.stored.Status = models.SlotCancelled
	_, err = svc.Complete(context.Background(), "slot-1")
	require.Error(t, err)
}
