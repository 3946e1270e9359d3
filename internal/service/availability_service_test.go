package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/models"
)

type availabilityRepoStub struct {
	records []models.TeacherAvailability
	created []*models.TeacherAvailability
	delErr  error
}

func (s *availabilityRepoStub) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	return s.records, nil
}

func (s *availabilityRepoStub) Create(ctx context.Context, record *models.TeacherAvailability) error {
	record.ID = "av-1"
	s.created = append(s.created, record)
	return nil
}

func (s *availabilityRepoStub) Delete(ctx context.Context, id string) error {
	return s.delErr
}

type availTeacherRepoStub struct {
	known bool
}

func (s *availTeacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if !s.known {
		return nil, sql.ErrNoRows
	}
	return &models.Teacher{ID: id}, nil
}

func TestAvailabilityCreateWholeDay(t *testing.T) {
	repo := &availabilityRepoStub{}
	svc := NewAvailabilityService(repo, &availTeacherRepoStub{known: true}, nil, nil)

	record, err := svc.Create(context.Background(), "t1", CreateAvailabilityRequest{Date: "2025-09-03"})
	require.NoError(t, err)
	assert.True(t, record.WholeDay())
	require.Len(t, repo.created, 1)
}

func TestAvailabilityCreatePartialBlock(t *testing.T) {
	repo := &availabilityRepoStub{}
	svc := NewAvailabilityService(repo, &availTeacherRepoStub{known: true}, nil, nil)

	start, end := "10:00", "12:00"
	record, err := svc.Create(context.Background(), "t1", CreateAvailabilityRequest{
		Date:      "2025-09-03",
		StartTime: &start,
		EndTime:   &end,
	})
	require.NoError(t, err)
	require.NotNil(t, record.StartMinute)
	assert.Equal(t, 600, *record.StartMinute)
	assert.Equal(t, 720, *record.EndMinute)
	assert.False(t, record.WholeDay())
}

func TestAvailabilityCreateRejectsHalfOpenPair(t *testing.T) {
	svc := NewAvailabilityService(&availabilityRepoStub{}, &availTeacherRepoStub{known: true}, nil, nil)

	start := "10:00"
	_, err := svc.Create(context.Background(), "t1", CreateAvailabilityRequest{
		Date:      "2025-09-03",
		StartTime: &start,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provided together")
}

func TestAvailabilityCreateRejectsInvertedTimes(t *testing.T) {
	svc := NewAvailabilityService(&availabilityRepoStub{}, &availTeacherRepoStub{known: true}, nil, nil)

	start, end := "12:00", "10:00"
	_, err := svc.Create(context.Background(), "t1", CreateAvailabilityRequest{
		Date:      "2025-09-03",
		StartTime: &start,
		EndTime:   &end,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before end_time")
}

func TestAvailabilityCreateUnknownTeacher(t *testing.T) {
	svc := NewAvailabilityService(&availabilityRepoStub{}, &availTeacherRepoStub{}, nil, nil)

	_, err := svc.Create(context.Background(), "ghost", CreateAvailabilityRequest{Date: "2025-09-03"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher not found")
}

func TestAvailabilityDeleteMissing(t *testing.T) {
	svc := NewAvailabilityService(&availabilityRepoStub{delErr: sql.ErrNoRows}, &availTeacherRepoStub{known: true}, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
