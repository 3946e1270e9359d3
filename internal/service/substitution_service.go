package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/engine"
	"github.com/edusys-id/substitution-api/internal/models"
	appErrors "github.com/edusys-id/substitution-api/pkg/errors"
)

type substitutionRepository interface {
	Create(ctx context.Context, request *models.SubstitutionRequest) error
	FindByID(ctx context.Context, id string) (*models.SubstitutionRequest, error)
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error)
	UpdateStatus(ctx context.Context, id string, status models.SubstitutionStatus) error
	SetSuggestion(ctx context.Context, id, teacherID string, matchScore float64, reason string) error
	SetAnnotation(ctx context.Context, id, annotation string) error
}

type substitutionSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	AssignTeacher(ctx context.Context, id, teacherID string) error
}

type substitutionTeacherRepository interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type availabilityLister interface {
	ListForDate(ctx context.Context, date time.Time) (map[string][]*models.TeacherAvailability, error)
}

type workloadSnapshotter interface {
	Snapshot(ctx context.Context, weekStart time.Time) (map[string]int, error)
	Recompute(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error)
}

type substitutionNotifier interface {
	NotifySubstitution(event string, request *models.SubstitutionRequest)
}

type substitutionAnnotator interface {
	AnnotateSubstitution(ctx context.Context, request *models.SubstitutionRequest)
}

// ReportAbsenceRequest is the payload for reporting a teacher absence.
type ReportAbsenceRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
	// ProgressPercent is how far through the subject's syllabus the class
	// is, 0-100.
	ProgressPercent float64 `json:"progress_percent" validate:"gte=0,lte=100"`
	// SubjectWeight grades how consequential the subject is, 1-5.
	SubjectWeight int `json:"subject_weight" validate:"required,gte=1,lte=5"`
}

// ApplySubstitutionRequest optionally overrides the suggested substitute.
type ApplySubstitutionRequest struct {
	TeacherID *string `json:"teacher_id" validate:"omitempty,uuid"`
}

// SubstitutionService drives the absence-to-substitute workflow: report an
// absence, rank eligible substitutes, and apply or reject the suggestion.
type SubstitutionService struct {
	requests       substitutionRepository
	slots          substitutionSlotRepository
	teachers       substitutionTeacherRepository
	availability   availabilityLister
	workload       workloadSnapshotter
	notifier       substitutionNotifier
	annotator      substitutionAnnotator
	metrics        *MetricsService
	cfg            engine.Config
	candidateLimit int
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewSubstitutionService constructs a SubstitutionService. notifier,
// annotator and metrics may be nil.
func NewSubstitutionService(requests substitutionRepository, slots substitutionSlotRepository, teachers substitutionTeacherRepository, availability availabilityLister, workload workloadSnapshotter, notifier substitutionNotifier, annotator substitutionAnnotator, metrics *MetricsService, cfg engine.Config, candidateLimit int, validate *validator.Validate, logger *zap.Logger) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if candidateLimit <= 0 {
		candidateLimit = 5
	}
	return &SubstitutionService{
		requests:       requests,
		slots:          slots,
		teachers:       teachers,
		availability:   availability,
		workload:       workload,
		notifier:       notifier,
		annotator:      annotator,
		metrics:        metrics,
		cfg:            cfg,
		candidateLimit: candidateLimit,
		validator:      validate,
		logger:         logger,
	}
}

// FindEligible ranks the eligible substitutes for a slot. An empty list is
// a valid outcome: it means no teacher can cover the slot.
func (s *SubstitutionService) FindEligible(ctx context.Context, slotID string) ([]models.SubstitutionCandidate, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.rank(ctx, slot)
	if err != nil {
		return nil, err
	}
	return engine.Top(candidates, s.candidateLimit), nil
}

func (s *SubstitutionService) rank(ctx context.Context, slot *models.TimeSlot) ([]models.SubstitutionCandidate, error) {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	assigned, err := s.workload.Snapshot(ctx, slot.WeekStart)
	if err != nil {
		return nil, err
	}
	unavailability, err := s.availability.ListForDate(ctx, slot.Date())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	refs := make([]*models.Teacher, len(teachers))
	for i := range teachers {
		refs[i] = &teachers[i]
	}

	started := time.Now()
	candidates := engine.Rank(engine.RankInput{
		Slot:            slot,
		Teachers:        refs,
		AssignedMinutes: assigned,
		Unavailability:  unavailability,
	}, s.cfg)
	s.metrics.ObserveRanking(time.Since(started), len(candidates))

	return candidates, nil
}

// ReportAbsence opens a substitution request for the slot's teacher,
// classifies its priority and immediately attempts a suggestion.
func (s *SubstitutionService) ReportAbsence(ctx context.Context, req ReportAbsenceRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}

	slot, err := s.loadSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.TeacherID == nil || *slot.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "slot has no assigned teacher to be absent")
	}

	priority := engine.Classify(req.ProgressPercent, req.SubjectWeight)
	request := &models.SubstitutionRequest{
		SlotID:          slot.ID,
		AbsentTeacherID: *slot.TeacherID,
		Date:            slot.Date(),
		Status:          models.SubstitutionOpen,
		Priority:        string(priority),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitution request")
	}
	s.metrics.RecordSubstitution(string(models.SubstitutionOpen), request.Priority)

	candidates, err := s.rank(ctx, slot)
	if err != nil {
		// The request stands even when ranking fails; a retry can suggest
		// later.
		s.logger.Error("candidate ranking failed", zap.String("request_id", request.ID), zap.Error(err))
		return request, nil
	}
	if len(candidates) > 0 {
		best := candidates[0]
		if err := s.requests.SetSuggestion(ctx, request.ID, best.TeacherID, best.MatchScore, best.Reason); err != nil {
			s.logger.Error("failed to store suggestion", zap.String("request_id", request.ID), zap.Error(err))
			return request, nil
		}
		request.Status = models.SubstitutionSuggested
		request.SuggestedTeacherID = &best.TeacherID
		request.MatchScore = &best.MatchScore
		request.Reason = &best.Reason
		s.metrics.RecordSubstitution(string(models.SubstitutionSuggested), request.Priority)
	} else {
		s.logger.Warn("no eligible substitute found",
			zap.String("request_id", request.ID),
			zap.String("slot_id", slot.ID),
			zap.String("priority", request.Priority))
	}

	if s.annotator != nil {
		s.annotator.AnnotateSubstitution(ctx, request)
		if request.Annotation != nil {
			if err := s.requests.SetAnnotation(ctx, request.ID, *request.Annotation); err != nil {
				s.logger.Warn("failed to store annotation", zap.String("request_id", request.ID), zap.Error(err))
			}
		}
	}
	if s.notifier != nil {
		s.notifier.NotifySubstitution("substitution.reported", request)
	}
	return request, nil
}

// Apply assigns the substitute to the slot and closes out the request. An
// explicit teacher override must still pass the eligibility filter.
func (s *SubstitutionService) Apply(ctx context.Context, id string, req ApplySubstitutionRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid apply payload")
	}

	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.SubstitutionOpen && request.Status != models.SubstitutionSuggested {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only open or suggested requests can be applied")
	}

	teacherID := ""
	if req.TeacherID != nil {
		teacherID = *req.TeacherID
	} else if request.SuggestedTeacherID != nil {
		teacherID = *request.SuggestedTeacherID
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no substitute teacher selected")
	}

	slot, err := s.loadSlot(ctx, request.SlotID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.rank(ctx, slot)
	if err != nil {
		return nil, err
	}
	if !containsCandidate(candidates, teacherID) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "selected teacher is not an eligible substitute")
	}

	if err := s.slots.AssignTeacher(ctx, slot.ID, teacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign substitute")
	}
	if err := s.requests.UpdateStatus(ctx, id, models.SubstitutionApplied); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}
	request.Status = models.SubstitutionApplied
	request.SuggestedTeacherID = &teacherID
	s.metrics.RecordSubstitution(string(models.SubstitutionApplied), request.Priority)

	// Both the absent teacher and the substitute change committed minutes.
	for _, affected := range []string{request.AbsentTeacherID, teacherID} {
		if _, err := s.workload.Recompute(ctx, affected, slot.WeekStart); err != nil {
			s.logger.Error("workload recompute failed",
				zap.String("teacher_id", affected),
				zap.String("request_id", id),
				zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.NotifySubstitution("substitution.applied", request)
	}
	return request, nil
}

// Reject declines the current suggestion and reopens the request.
func (s *SubstitutionService) Reject(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.SubstitutionSuggested {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only suggested requests can be rejected")
	}
	if err := s.requests.UpdateStatus(ctx, id, models.SubstitutionRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}
	request.Status = models.SubstitutionRejected
	s.metrics.RecordSubstitution(string(models.SubstitutionRejected), request.Priority)

	if s.notifier != nil {
		s.notifier.NotifySubstitution("substitution.rejected", request)
	}
	return request, nil
}

// Cancel withdraws a request before it is applied.
func (s *SubstitutionService) Cancel(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.SubstitutionOpen && request.Status != models.SubstitutionSuggested {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only open or suggested requests can be cancelled")
	}
	if err := s.requests.UpdateStatus(ctx, id, models.SubstitutionCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}
	request.Status = models.SubstitutionCancelled
	s.metrics.RecordSubstitution(string(models.SubstitutionCancelled), request.Priority)
	return request, nil
}

// Get returns a substitution request by id.
func (s *SubstitutionService) Get(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitution request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution request")
	}
	return request, nil
}

// List returns substitution requests plus pagination data.
func (s *SubstitutionService) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, *models.Pagination, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitution requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return requests, pagination, nil
}

func (s *SubstitutionService) loadSlot(ctx context.Context, slotID string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if slot.Status == models.SlotCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cancelled slots cannot be substituted")
	}
	return slot, nil
}

func containsCandidate(candidates []models.SubstitutionCandidate, teacherID string) bool {
	for _, candidate := range candidates {
		if candidate.TeacherID == teacherID {
			return true
		}
	}
	return false
}
