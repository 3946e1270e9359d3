package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusys-id/substitution-api/internal/models"
)

// ConflictRepository stores detection results. Each detection run replaces
// the previous conflict set for the schedule wholesale; there is no
// incremental patching.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository constructs a ConflictRepository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// ReplaceForSchedule swaps the stored conflicts for the schedule inside a
// transaction.
func (r *ConflictRepository) ReplaceForSchedule(ctx context.Context, scheduleID string, conflicts []models.Conflict) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin conflict replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM conflicts WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear conflicts: %w", err)
	}

	const insert = `INSERT INTO conflicts (id, schedule_id, conflict_type, severity, slot_id, slot2_id, description, detected_at)
		VALUES (:id, :schedule_id, :conflict_type, :severity, :slot_id, :slot2_id, :description, :detected_at)`
	now := time.Now().UTC()
	for i := range conflicts {
		if conflicts[i].ID == "" {
			conflicts[i].ID = uuid.NewString()
		}
		if conflicts[i].DetectedAt.IsZero() {
			conflicts[i].DetectedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, conflicts[i]); err != nil {
			return fmt.Errorf("insert conflict: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conflict replace: %w", err)
	}
	return nil
}

// ListBySchedule returns the stored conflicts for a schedule.
func (r *ConflictRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error) {
	const query = `SELECT id, schedule_id, conflict_type, severity, slot_id, slot2_id, description, detected_at
		FROM conflicts WHERE schedule_id = $1 ORDER BY conflict_type, slot_id`
	var conflicts []models.Conflict
	if err := r.db.SelectContext(ctx, &conflicts, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return conflicts, nil
}
