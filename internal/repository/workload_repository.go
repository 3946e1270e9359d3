package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edusys-id/substitution-api/internal/models"
)

// WorkloadRepository owns the (teacher, week_start) workload aggregate.
type WorkloadRepository struct {
	db *sqlx.DB
}

// NewWorkloadRepository constructs a WorkloadRepository.
func NewWorkloadRepository(db *sqlx.DB) *WorkloadRepository {
	return &WorkloadRepository{db: db}
}

// Upsert writes the aggregate row atomically. The unique (teacher_id,
// week_start) constraint plus ON CONFLICT keeps concurrent recomputes from
// producing duplicate rows.
func (r *WorkloadRepository) Upsert(ctx context.Context, workload *models.WeeklyWorkload) error {
	workload.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO weekly_workloads (teacher_id, week_start, assigned_minutes, updated_at)
		VALUES (:teacher_id, :week_start, :assigned_minutes, :updated_at)
		ON CONFLICT (teacher_id, week_start)
		DO UPDATE SET assigned_minutes = EXCLUDED.assigned_minutes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, workload); err != nil {
		return fmt.Errorf("upsert workload: %w", err)
	}
	return nil
}

// Get returns the aggregate for a teacher and week; sql.ErrNoRows when the
// teacher has no committed minutes yet.
func (r *WorkloadRepository) Get(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error) {
	const query = `SELECT teacher_id, week_start, assigned_minutes, updated_at FROM weekly_workloads WHERE teacher_id = $1 AND week_start = $2`
	var workload models.WeeklyWorkload
	if err := r.db.GetContext(ctx, &workload, query, teacherID, weekStart); err != nil {
		return nil, err
	}
	return &workload, nil
}

// SnapshotForWeek returns assigned minutes for every teacher with a row in
// the week, keyed by teacher id. Teachers without a row carry zero load.
func (r *WorkloadRepository) SnapshotForWeek(ctx context.Context, weekStart time.Time) (map[string]int, error) {
	const query = `SELECT teacher_id, week_start, assigned_minutes, updated_at FROM weekly_workloads WHERE week_start = $1`
	var rows []models.WeeklyWorkload
	if err := r.db.SelectContext(ctx, &rows, query, weekStart); err != nil {
		return nil, fmt.Errorf("snapshot workloads: %w", err)
	}

	snapshot := make(map[string]int, len(rows))
	for _, row := range rows {
		snapshot[row.TeacherID] = row.AssignedMinutes
	}
	return snapshot, nil
}
