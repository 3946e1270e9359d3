package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-id/substitution-api/internal/engine"
	"github.com/edusys-id/substitution-api/internal/models"
)

type substitutionRepoStub struct {
	created     []*models.SubstitutionRequest
	stored      *models.SubstitutionRequest
	suggestions []string
	statuses    []models.SubstitutionStatus
	annotations []string
}

func (s *substitutionRepoStub) Create(ctx context.Context, request *models.SubstitutionRequest) error {
	request.ID = "req-1"
	s.created = append(s.created, request)
	return nil
}

func (s *substitutionRepoStub) FindByID(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.stored
	return &copied, nil
}

func (s *substitutionRepoStub) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error) {
	if s.stored == nil {
		return nil, 0, nil
	}
	return []models.SubstitutionRequest{*s.stored}, 1, nil
}

func (s *substitutionRepoStub) UpdateStatus(ctx context.Context, id string, status models.SubstitutionStatus) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *substitutionRepoStub) SetSuggestion(ctx context.Context, id, teacherID string, matchScore float64, reason string) error {
	s.suggestions = append(s.suggestions, teacherID)
	return nil
}

func (s *substitutionRepoStub) SetAnnotation(ctx context.Context, id, annotation string) error {
	s.annotations = append(s.annotations, annotation)
	return nil
}

type subAnnotatorStub struct {
	note string
}

func (s *subAnnotatorStub) AnnotateSubstitution(ctx context.Context, request *models.SubstitutionRequest) {
	request.Annotation = &s.note
}

type subSlotRepoStub struct {
	slot     *models.TimeSlot
	assigned []string
}

func (s *subSlotRepoStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if s.slot == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.slot
	return &copied, nil
}

func (s *subSlotRepoStub) AssignTeacher(ctx context.Context, id, teacherID string) error {
	s.assigned = append(s.assigned, teacherID)
	return nil
}

type subTeacherRepoStub struct {
	teachers []models.Teacher
}

func (s *subTeacherRepoStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, nil
}

func (s *subTeacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for i := range s.teachers {
		if s.teachers[i].ID == id {
			return &s.teachers[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type availabilityListerStub struct {
	blocks map[string][]*models.TeacherAvailability
}

func (s *availabilityListerStub) ListForDate(ctx context.Context, date time.Time) (map[string][]*models.TeacherAvailability, error) {
	return s.blocks, nil
}

type workloadSnapStub struct {
	snapshot   map[string]int
	recomputed []string
}

func (s *workloadSnapStub) Snapshot(ctx context.Context, weekStart time.Time) (map[string]int, error) {
	return s.snapshot, nil
}

func (s *workloadSnapStub) Recompute(ctx context.Context, teacherID string, weekStart time.Time) (*models.WeeklyWorkload, error) {
	s.recomputed = append(s.recomputed, teacherID)
	return &models.WeeklyWorkload{TeacherID: teacherID, WeekStart: weekStart}, nil
}

type notifierStub struct {
	events []string
}

func (s *notifierStub) NotifySubstitution(event string, request *models.SubstitutionRequest) {
	s.events = append(s.events, event)
}

func mathsSlot() *models.TimeSlot {
	teacher := "t-absent"
	return &models.TimeSlot{
		ID:          "11111111-1111-1111-1111-111111111111",
		ScheduleID:  "sched-1",
		WeekStart:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Day:         models.Wednesday,
		StartMinute: 600,
		EndMinute:   690,
		TeacherID:   &teacher,
		SubjectCode: "MATH",
		Status:      models.SlotScheduled,
	}
}

func substitutePool() []models.Teacher {
	return []models.Teacher{
		{ID: "t-absent", EmploymentCode: "EMP-000", FullName: "Absent", Subjects: []string{"MATH"}, Status: models.TeacherActive},
		{ID: "t-math", EmploymentCode: "EMP-001", FullName: "Math Sub", Subjects: []string{"MATH"}, Status: models.TeacherActive},
		{ID: "t-bio", EmploymentCode: "EMP-002", FullName: "Bio Sub", Subjects: []string{"BIO"}, Status: models.TeacherActive},
	}
}

func newSubstitutionService(requests *substitutionRepoStub, slots *subSlotRepoStub, teachers *subTeacherRepoStub, workload *workloadSnapStub, notifier *notifierStub) *SubstitutionService {
	// Avoid wrapping a nil *notifierStub in a non-nil interface value.
	var n substitutionNotifier
	if notifier != nil {
		n = notifier
	}
	return NewSubstitutionService(requests, slots, teachers,
		&availabilityListerStub{blocks: map[string][]*models.TeacherAvailability{}},
		workload, n, nil, nil, engine.DefaultConfig(), 5, nil, nil)
}

func TestReportAbsenceClassifiesAndSuggests(t *testing.T) {
	requests := &substitutionRepoStub{}
	slots := &subSlotRepoStub{slot: mathsSlot()}
	notifier := &notifierStub{}
	svc := newSubstitutionService(requests, slots, &subTeacherRepoStub{teachers: substitutePool()},
		&workloadSnapStub{snapshot: map[string]int{}}, notifier)

	request, err := svc.ReportAbsence(context.Background(), ReportAbsenceRequest{
		SlotID:          "11111111-1111-1111-1111-111111111111",
		ProgressPercent: 40,
		SubjectWeight:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "critical", request.Priority)
	assert.Equal(t, models.SubstitutionSuggested, request.Status)
	require.NotNil(t, request.SuggestedTeacherID)
	// The qualified teacher outranks the unqualified one.
	assert.Equal(t, "t-math", *request.SuggestedTeacherID)
	assert.Equal(t, []string{"t-math"}, requests.suggestions)
	assert.Equal(t, []string{"substitution.reported"}, notifier.events)
}

func TestReportAbsencePersistsAnnotation(t *testing.T) {
	requests := &substitutionRepoStub{}
	slots := &subSlotRepoStub{slot: mathsSlot()}
	annotator := &subAnnotatorStub{note: "cover prepared exercises from chapter 4"}
	svc := NewSubstitutionService(requests, slots, &subTeacherRepoStub{teachers: substitutePool()},
		&availabilityListerStub{blocks: map[string][]*models.TeacherAvailability{}},
		&workloadSnapStub{snapshot: map[string]int{}}, nil, annotator, nil,
		engine.DefaultConfig(), 5, nil, nil)

	request, err := svc.ReportAbsence(context.Background(), ReportAbsenceRequest{
		SlotID:          "11111111-1111-1111-1111-111111111111",
		ProgressPercent: 40,
		SubjectWeight:   5,
	})
	require.NoError(t, err)
	require.NotNil(t, request.Annotation)
	// The annotation survives beyond the response: it is written back to the
	// request record.
	assert.Equal(t, []string{annotator.note}, requests.annotations)
}

func TestReportAbsenceWithoutCandidatesStaysOpen(t *testing.T) {
	requests := &substitutionRepoStub{}
	slots := &subSlotRepoStub{slot: mathsSlot()}
	// Only the absent teacher exists, and self-substitution is excluded.
	pool := &subTeacherRepoStub{teachers: substitutePool()[:1]}
	svc := newSubstitutionService(requests, slots, pool, &workloadSnapStub{snapshot: map[string]int{}}, nil)

	request, err := svc.ReportAbsence(context.Background(), ReportAbsenceRequest{
		SlotID:          "11111111-1111-1111-1111-111111111111",
		ProgressPercent: 90,
		SubjectWeight:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, "normal", request.Priority)
	assert.Equal(t, models.SubstitutionOpen, request.Status)
	assert.Nil(t, request.SuggestedTeacherID)
	assert.Empty(t, requests.suggestions)
}

func TestReportAbsenceRequiresAssignedTeacher(t *testing.T) {
	slot := mathsSlot()
	slot.TeacherID = nil
	svc := newSubstitutionService(&substitutionRepoStub{}, &subSlotRepoStub{slot: slot},
		&subTeacherRepoStub{teachers: substitutePool()}, &workloadSnapStub{snapshot: map[string]int{}}, nil)

	_, err := svc.ReportAbsence(context.Background(), ReportAbsenceRequest{
		SlotID:          "11111111-1111-1111-1111-111111111111",
		ProgressPercent: 40,
		SubjectWeight:   5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no assigned teacher")
}

func TestApplyAssignsSubstituteAndRecomputesBothTeachers(t *testing.T) {
	suggested := "t-math"
	requests := &substitutionRepoStub{stored: &models.SubstitutionRequest{
		ID:                 "req-1",
		SlotID:             "11111111-1111-1111-1111-111111111111",
		AbsentTeacherID:    "t-absent",
		Status:             models.SubstitutionSuggested,
		Priority:           "critical",
		SuggestedTeacherID: &suggested,
	}}
	slots := &subSlotRepoStub{slot: mathsSlot()}
	workload := &workloadSnapStub{snapshot: map[string]int{}}
	notifier := &notifierStub{}
	svc := newSubstitutionService(requests, slots, &subTeacherRepoStub{teachers: substitutePool()}, workload, notifier)

	request, err := svc.Apply(context.Background(), "req-1", ApplySubstitutionRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionApplied, request.Status)
	assert.Equal(t, []string{"t-math"}, slots.assigned)
	assert.Equal(t, []string{"t-absent", "t-math"}, workload.recomputed)
	assert.Equal(t, []string{"substitution.applied"}, notifier.events)
}

func TestApplyRejectsIneligibleOverride(t *testing.T) {
	requests := &substitutionRepoStub{stored: &models.SubstitutionRequest{
		ID:              "req-1",
		SlotID:          "11111111-1111-1111-1111-111111111111",
		AbsentTeacherID: "t-absent",
		Status:          models.SubstitutionOpen,
		Priority:        "high",
	}}
	slots := &subSlotRepoStub{slot: mathsSlot()}
	pool := substitutePool()
	pool[2].Status = models.TeacherOnLeave
	svc := newSubstitutionService(requests, slots, &subTeacherRepoStub{teachers: pool},
		&workloadSnapStub{snapshot: map[string]int{}}, nil)

	override := "aaaaaaaa-0000-0000-0000-000000000000"
	_, err := svc.Apply(context.Background(), "req-1", ApplySubstitutionRequest{TeacherID: &override})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an eligible substitute")
	assert.Empty(t, slots.assigned)
}

func TestApplyRequiresOpenOrSuggested(t *testing.T) {
	requests := &substitutionRepoStub{stored: &models.SubstitutionRequest{
		ID:     "req-1",
		SlotID: "11111111-1111-1111-1111-111111111111",
		Status: models.SubstitutionApplied,
	}}
	svc := newSubstitutionService(requests, &subSlotRepoStub{slot: mathsSlot()},
		&subTeacherRepoStub{teachers: substitutePool()}, &workloadSnapStub{snapshot: map[string]int{}}, nil)

	_, err := svc.Apply(context.Background(), "req-1", ApplySubstitutionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only open or suggested")
}

func TestRejectOnlySuggested(t *testing.T) {
	requests := &substitutionRepoStub{stored: &models.SubstitutionRequest{
		ID:     "req-1",
		Status: models.SubstitutionOpen,
	}}
	svc := newSubstitutionService(requests, &subSlotRepoStub{}, &subTeacherRepoStub{},
		&workloadSnapStub{}, nil)

	_, err := svc.Reject(context.Background(), "req-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only suggested")
}

func TestFindEligibleOnCancelledSlot(t *testing.T) {
	slot := mathsSlot()
	slot.Status = models.SlotCancelled
	svc := newSubstitutionService(&substitutionRepoStub{}, &subSlotRepoStub{slot: slot},
		&subTeacherRepoStub{teachers: substitutePool()}, &workloadSnapStub{snapshot: map[string]int{}}, nil)

	_, err := svc.FindEligible(context.Background(), slot.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestFindEligibleRespectsUnavailability(t *testing.T) {
	slots := &subSlotRepoStub{slot: mathsSlot()}
	blocks := map[string][]*models.TeacherAvailability{
		"t-math": {{TeacherID: "t-math"}}, // whole-day block
	}
	svc := NewSubstitutionService(&substitutionRepoStub{}, slots,
		&subTeacherRepoStub{teachers: substitutePool()},
		&availabilityListerStub{blocks: blocks},
		&workloadSnapStub{snapshot: map[string]int{}}, nil, nil, nil,
		engine.DefaultConfig(), 5, nil, nil)

	candidates, err := svc.FindEligible(context.Background(), slots.slot.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "t-bio", candidates[0].TeacherID)
}
