package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/models"
)

type teacherRepoStub struct {
	stored   *models.Teacher
	exists   bool
	created  []*models.Teacher
	updated  []*models.Teacher
	statuses []models.TeacherStatus
}

func (s *teacherRepoStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if s.stored == nil {
		return nil, 0, nil
	}
	return []models.Teacher{*s.stored}, 1, nil
}

func (s *teacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.stored
	return &copied, nil
}

func (s *teacherRepoStub) ExistsByEmploymentCode(ctx context.Context, code, excludeID string) (bool, error) {
	return s.exists, nil
}

func (s *teacherRepoStub) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = "t-new"
	s.created = append(s.created, teacher)
	return nil
}

func (s *teacherRepoStub) Update(ctx context.Context, teacher *models.Teacher) error {
	s.updated = append(s.updated, teacher)
	return nil
}

func (s *teacherRepoStub) UpdateStatus(ctx context.Context, id string, status models.TeacherStatus) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func TestTeacherCreateNormalizesSubjects(t *testing.T) {
	repo := &teacherRepoStub{}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		EmploymentCode: " EMP-010 ",
		Email:          "new@school.id",
		FullName:       "New Teacher",
		Subjects:       []string{"math", " MATH ", "phys"},
	})
	require.NoError(t, err)
	assert.Equal(t, "EMP-010", teacher.EmploymentCode)
	assert.Equal(t, []string{"MATH", "PHYS"}, []string(teacher.Subjects))
	assert.Equal(t, models.TeacherActive, teacher.Status)
}

func TestTeacherCreateDuplicateCode(t *testing.T) {
	repo := &teacherRepoStub{exists: true}
	svc := NewTeacherService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{
		EmploymentCode: "EMP-001",
		Email:          "dup@school.id",
		FullName:       "Dup",
		Subjects:       []string{"MATH"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employment code already used")
	assert.Empty(t, repo.created)
}

func TestTeacherCreateRequiresSubjects(t *testing.T) {
	svc := NewTeacherService(&teacherRepoStub{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{
		EmploymentCode: "EMP-001",
		Email:          "x@school.id",
		FullName:       "X",
	})
	require.Error(t, err)
}

func TestTeacherUpdateStatusBlocksResignedReactivation(t *testing.T) {
	repo := &teacherRepoStub{stored: &models.Teacher{ID: "t1", Status: models.TeacherResigned}}
	svc := NewTeacherService(repo, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "t1", models.TeacherActive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "re-registered")
	assert.Empty(t, repo.statuses)
}

func TestTeacherUpdateStatusOnLeave(t *testing.T) {
	repo := &teacherRepoStub{stored: &models.Teacher{ID: "t1", Status: models.TeacherActive}}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.UpdateStatus(context.Background(), "t1", models.TeacherOnLeave)
	require.NoError(t, err)
	assert.Equal(t, models.TeacherOnLeave, teacher.Status)
	assert.Equal(t, []models.TeacherStatus{models.TeacherOnLeave}, repo.statuses)
}
