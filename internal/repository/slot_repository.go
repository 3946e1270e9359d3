package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusys-id/substitution-api/internal/models"
)

const slotColumns = "id, schedule_id, week_start, day_of_week, start_minute, end_minute, location, teacher_id, subject_code, status, created_at, updated_at"

// SlotRepository manages persistence for time slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// List returns slots matching filters along with total count.
func (r *SlotRepository) List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, int, error) {
	base := "FROM time_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("schedule_id = $%d", len(args)+1))
		args = append(args, filter.ScheduleID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Day))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.WeekStart != nil {
		conditions = append(conditions, fmt.Sprintf("week_start = $%d", len(args)+1))
		args = append(args, *filter.WeekStart)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"day_of_week":  "day_of_week",
		"start_minute": "start_minute",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", slotColumns, base, column, order, size, offset)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count slots: %w", err)
	}

	return slots, total, nil
}

// FindByID fetches a slot by ID.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE id = $1", slotColumns)
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListBySchedule returns every slot belonging to a schedule.
func (r *SlotRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE schedule_id = $1 ORDER BY day_of_week, start_minute", slotColumns)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list slots by schedule: %w", err)
	}
	return slots, nil
}

// ListByTeacherWeek returns a teacher's slots for a given week.
func (r *SlotRepository) ListByTeacherWeek(ctx context.Context, teacherID string, weekStart time.Time) ([]models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE teacher_id = $1 AND week_start = $2", slotColumns)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID, weekStart); err != nil {
		return nil, fmt.Errorf("list slots by teacher week: %w", err)
	}
	return slots, nil
}

// Create inserts a new slot record.
func (r *SlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	if slot.Status == "" {
		slot.Status = models.SlotScheduled
	}

	const query = `INSERT INTO time_slots (id, schedule_id, week_start, day_of_week, start_minute, end_minute, location, teacher_id, subject_code, status, created_at, updated_at)
		VALUES (:id, :schedule_id, :week_start, :day_of_week, :start_minute, :end_minute, :location, :teacher_id, :subject_code, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// Update modifies an existing slot record.
func (r *SlotRepository) Update(ctx context.Context, slot *models.TimeSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_slots SET week_start = :week_start, day_of_week = :day_of_week, start_minute = :start_minute, end_minute = :end_minute, location = :location, teacher_id = :teacher_id, subject_code = :subject_code, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

// UpdateStatus transitions a slot's lifecycle status.
func (r *SlotRepository) UpdateStatus(ctx context.Context, id string, status models.SlotStatus) error {
	const query = `UPDATE time_slots SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	return nil
}

// AssignTeacher swaps the slot's teacher and marks it substituted.
func (r *SlotRepository) AssignTeacher(ctx context.Context, id, teacherID string) error {
	const query = `UPDATE time_slots SET teacher_id = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID, models.SlotSubstituted, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign slot teacher: %w", err)
	}
	return nil
}
