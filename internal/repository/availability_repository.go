package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusys-id/substitution-api/internal/models"
)

const availabilityColumns = "id, teacher_id, date, start_minute, end_minute, reason, created_at"

// AvailabilityRepository manages teacher unavailability records.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTeacher returns a teacher's unavailability records, newest first.
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_availability WHERE teacher_id = $1 ORDER BY date DESC", availabilityColumns)
	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return records, nil
}

// ListForDate returns every unavailability record on the date, keyed by teacher.
func (r *AvailabilityRepository) ListForDate(ctx context.Context, date time.Time) (map[string][]*models.TeacherAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_availability WHERE date = $1", availabilityColumns)
	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("list availability for date: %w", err)
	}

	byTeacher := make(map[string][]*models.TeacherAvailability, len(records))
	for i := range records {
		record := &records[i]
		byTeacher[record.TeacherID] = append(byTeacher[record.TeacherID], record)
	}
	return byTeacher, nil
}

// Create inserts a new unavailability record.
func (r *AvailabilityRepository) Create(ctx context.Context, record *models.TeacherAvailability) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO teacher_availability (id, teacher_id, date, start_minute, end_minute, reason, created_at)
		VALUES (:id, :teacher_id, :date, :start_minute, :end_minute, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Delete removes an unavailability record.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_availability WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
