package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/models"
	"github.com/edusys-id/substitution-api/pkg/export"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type exportConflictRepository interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Conflict, error)
}

type exportSubstitutionRepository interface {
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.SubstitutionRequest, error)
}

type exportSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

type exportTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderLetter(letter export.Letter) ([]byte, error)
}

// ExportService renders conflict reports and substitution records as CSV
// and PDF documents.
type ExportService struct {
	conflicts     exportConflictRepository
	substitutions exportSubstitutionRepository
	slots         exportSlotRepository
	teachers      exportTeacherRepository
	csv           csvRenderer
	pdf           pdfRenderer
	schoolName    string
	logger        *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(conflicts exportConflictRepository, substitutions exportSubstitutionRepository, slots exportSlotRepository, teachers exportTeacherRepository, csv csvRenderer, pdf pdfRenderer, schoolName string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		conflicts:     conflicts,
		substitutions: substitutions,
		slots:         slots,
		teachers:      teachers,
		csv:           csv,
		pdf:           pdf,
		schoolName:    schoolName,
		logger:        logger,
	}
}

var conflictHeaders = []string{"conflict_id", "type", "severity", "slot_id", "slot2_id", "description", "detected_at"}

// ConflictsCSV renders the stored conflict set of a schedule as CSV.
func (s *ExportService) ConflictsCSV(ctx context.Context, scheduleID string) ([]byte, string, error) {
	conflicts, err := s.conflicts.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflicts")
	}

	rows := make([]map[string]string, 0, len(conflicts))
	for _, conflict := range conflicts {
		slot2 := ""
		if conflict.Slot2ID != nil {
			slot2 = *conflict.Slot2ID
		}
		rows = append(rows, map[string]string{
			"conflict_id": conflict.ID,
			"type":        string(conflict.Type),
			"severity":    string(conflict.Severity),
			"slot_id":     conflict.SlotID,
			"slot2_id":    slot2,
			"description": conflict.Description,
			"detected_at": conflict.DetectedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: conflictHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filename := fmt.Sprintf("conflicts-%s-%s.csv", scheduleID, time.Now().UTC().Format("20060102"))
	return data, filename, nil
}

var substitutionHeaders = []string{"request_id", "slot_id", "absent_teacher_id", "date", "status", "priority", "suggested_teacher_id", "match_score"}

// SubstitutionsCSV renders substitution requests matching the filter as CSV.
func (s *ExportService) SubstitutionsCSV(ctx context.Context, filter models.SubstitutionFilter) ([]byte, string, error) {
	// Export always covers the full filtered set, not one page.
	filter.Page = 1
	filter.PageSize = 10000

	requests, _, err := s.substitutions.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution requests")
	}

	rows := make([]map[string]string, 0, len(requests))
	for _, request := range requests {
		suggested := ""
		if request.SuggestedTeacherID != nil {
			suggested = *request.SuggestedTeacherID
		}
		score := ""
		if request.MatchScore != nil {
			score = strconv.FormatFloat(*request.MatchScore, 'f', 2, 64)
		}
		rows = append(rows, map[string]string{
			"request_id":           request.ID,
			"slot_id":              request.SlotID,
			"absent_teacher_id":    request.AbsentTeacherID,
			"date":                 request.Date.UTC().Format("2006-01-02"),
			"status":               string(request.Status),
			"priority":             request.Priority,
			"suggested_teacher_id": suggested,
			"match_score":          score,
		})
	}

	data, err := s.csv.Render(export.Dataset{Headers: substitutionHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filename := fmt.Sprintf("substitutions-%s.csv", time.Now().UTC().Format("20060102"))
	return data, filename, nil
}

// DutyLetterPDF renders the assignment letter for an applied substitution.
func (s *ExportService) DutyLetterPDF(ctx context.Context, requestID string) ([]byte, string, error) {
	request, err := s.substitutions.FindByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "substitution request not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution request")
	}
	if request.Status != models.SubstitutionApplied {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "duty letters are issued for applied substitutions only")
	}
	if request.SuggestedTeacherID == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "request has no substitute teacher")
	}

	slot, err := s.slots.FindByID(ctx, request.SlotID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	substitute, err := s.teachers.FindByID(ctx, *request.SuggestedTeacherID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute teacher")
	}
	absent, err := s.teachers.FindByID(ctx, request.AbsentTeacherID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absent teacher")
	}

	location := slot.LocationName()
	if location == "" {
		location = "-"
	}
	letter := export.Letter{
		SchoolName: s.schoolName,
		Title:      "Substitution Duty Letter",
		Recipient:  fmt.Sprintf("%s (%s)", substitute.FullName, substitute.EmploymentCode),
		Fields: [][2]string{
			{"Date", request.Date.UTC().Format("Monday, 2 January 2006")},
			{"Time", fmt.Sprintf("%s - %s", models.FormatMinute(slot.StartMinute), models.FormatMinute(slot.EndMinute))},
			{"Subject", slot.SubjectCode},
			{"Location", location},
			{"Covering for", absent.FullName},
		},
		Paragraphs: []string{
			fmt.Sprintf("You are assigned to cover the %s class detailed above. Please report to the location at least ten minutes before the published start time.", slot.SubjectCode),
			"This letter was generated by the substitution system and is valid without a signature.",
		},
	}

	data, err := s.pdf.RenderLetter(letter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render duty letter")
	}
	filename := fmt.Sprintf("duty-letter-%s.pdf", request.ID)
	return data, filename, nil
}
