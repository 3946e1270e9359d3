package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/models"
)

func TestConflictRepositoryReplaceForSchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	slot2 := "s2"
	conflicts := []models.Conflict{
		{
			ScheduleID:  "sched-1",
			Type:        models.ConflictTimeOverlap,
			Severity:    models.SeverityHigh,
			SlotID:      "s1",
			Slot2ID:     &slot2,
			Description: "slots overlap",
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conflicts WHERE schedule_id = $1")).
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO conflicts").
		WithArgs(sqlmock.AnyArg(), "sched-1", "time_overlap", "high", "s1", "s2", "slots overlap", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForSchedule(context.Background(), "sched-1", conflicts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryReplaceEmptySetClears(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM conflicts").
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceForSchedule(context.Background(), "sched-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "conflict_type", "severity", "slot_id", "slot2_id", "description", "detected_at"}).
		AddRow("c1", "sched-1", "time_overlap", "high", "s1", "s2", "slots overlap", time.Now())
	mock.ExpectQuery("SELECT id, schedule_id, conflict_type, severity, slot_id, slot2_id, description, detected_at").
		WithArgs("sched-1").
		WillReturnRows(rows)

	conflicts, err := repo.ListBySchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTimeOverlap, conflicts[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
