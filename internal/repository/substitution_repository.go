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

const substitutionColumns = "id, slot_id, absent_teacher_id, date, status, priority, suggested_teacher_id, match_score, reason, annotation, created_at, updated_at"

// SubstitutionRepository manages persisted substitution requests.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs a SubstitutionRepository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// Create inserts a new substitution request.
func (r *SubstitutionRepository) Create(ctx context.Context, request *models.SubstitutionRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO substitution_requests (id, slot_id, absent_teacher_id, date, status, priority, suggested_teacher_id, match_score, reason, annotation, created_at, updated_at)
		VALUES (:id, :slot_id, :absent_teacher_id, :date, :status, :priority, :suggested_teacher_id, :match_score, :reason, :annotation, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create substitution request: %w", err)
	}
	return nil
}

// FindByID fetches a substitution request by ID.
func (r *SubstitutionRepository) FindByID(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM substitution_requests WHERE id = $1", substitutionColumns)
	var request models.SubstitutionRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns substitution requests matching filters with total count.
func (r *SubstitutionRepository) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error) {
	base := "FROM substitution_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("(absent_teacher_id = $%d OR suggested_teacher_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", substitutionColumns, base, size, offset)
	var requests []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list substitution requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count substitution requests: %w", err)
	}

	return requests, total, nil
}

// UpdateStatus transitions a request's workflow status.
func (r *SubstitutionRepository) UpdateStatus(ctx context.Context, id string, status models.SubstitutionStatus) error {
	const query = `UPDATE substitution_requests SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update substitution status: %w", err)
	}
	return nil
}

// SetSuggestion records the chosen candidate on the request.
func (r *SubstitutionRepository) SetSuggestion(ctx context.Context, id, teacherID string, matchScore float64, reason string) error {
	const query = `UPDATE substitution_requests SET suggested_teacher_id = $2, match_score = $3, reason = $4, status = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID, matchScore, reason, models.SubstitutionSuggested, time.Now().UTC()); err != nil {
		return fmt.Errorf("set substitution suggestion: %w", err)
	}
	return nil
}

// SetAnnotation stores a non-authoritative enrichment note on the request.
func (r *SubstitutionRepository) SetAnnotation(ctx context.Context, id, annotation string) error {
	const query = `UPDATE substitution_requests SET annotation = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, annotation, time.Now().UTC()); err != nil {
		return fmt.Errorf("set substitution annotation: %w", err)
	}
	return nil
}
