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

func TestSubstitutionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectExec("INSERT INTO substitution_requests").
		WithArgs(sqlmock.AnyArg(), "s1", "t1", sqlmock.AnyArg(), "open", "high", nil, nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.SubstitutionRequest{
		SlotID:          "s1",
		AbsentTeacherID: "t1",
		Date:            time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:          models.SubstitutionOpen,
		Priority:        "high",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	assert.NotEmpty(t, request.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositorySetSuggestion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests SET suggested_teacher_id = $2, match_score = $3, reason = $4, status = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("req-1", "t2", 0.9, "subject match; light load", "suggested", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SetSuggestion(context.Background(), "req-1", "t2", 0.9, "subject match; light load")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("req-1", "applied", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "req-1", models.SubstitutionApplied))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "slot_id", "absent_teacher_id", "date", "status", "priority", "suggested_teacher_id", "match_score", "reason", "annotation", "created_at", "updated_at"}).
		AddRow("req-1", "s1", "t1", time.Now(), "open", "critical", nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM substitution_requests WHERE 1=1 AND status").
		WithArgs("open").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM substitution_requests WHERE 1=1 AND status = $1")).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.SubstitutionFilter{Status: "open"})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.SubstitutionOpen, requests[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
