package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edusys-id/substitution-api/internal/models"
)

// Scoring weights. Each term contributes a fixed fraction of the maximum
// composite score of 1.0.
const (
	scoreSubjectMatch  = 0.5
	scoreLoadLight     = 0.3 // assigned < 50% of cap
	scoreLoadModerate  = 0.2 // assigned < 80% of cap
	scoreLoadHeavy     = 0.1
	scoreAvailability  = 0.2
	lightLoadFraction  = 0.5
	normalLoadFraction = 0.8
)

// RankInput bundles the denormalized records the ranker operates on. The
// caller resolves referential integrity before calling; the ranker assumes
// the records are consistent.
type RankInput struct {
	Slot *models.TimeSlot
	// Teachers is the pool to consider; non-active entries are filtered.
	Teachers []*models.Teacher
	// AssignedMinutes maps teacher id to the workload snapshot for the
	// slot's week. Missing entries are treated as zero load.
	AssignedMinutes map[string]int
	// Unavailability maps teacher id to that teacher's unavailable blocks
	// on the candidate date.
	Unavailability map[string][]*models.TeacherAvailability
}

// Rank filters the eligible substitutes for the slot and returns them as a
// deterministically ordered candidate list. The order is a strict total
// order: match score desc, then remaining minutes desc, then employment
// code asc, so the output is reproducible for any input permutation.
// An empty result is a valid outcome, not an error.
func Rank(in RankInput, cfg Config) []models.SubstitutionCandidate {
	cfg = cfg.normalized()
	duration := in.Slot.Duration()

	candidates := make([]models.SubstitutionCandidate, 0, len(in.Teachers))
	for _, teacher := range in.Teachers {
		if teacher.Status != models.TeacherActive {
			continue
		}
		if in.Slot.TeacherID != nil && teacher.ID == *in.Slot.TeacherID {
			continue
		}
		if blocked(in.Unavailability[teacher.ID], in.Slot.StartMinute, in.Slot.EndMinute) {
			continue
		}

		capMinutes := teacher.MaxWeeklyMinutes
		if capMinutes <= 0 {
			capMinutes = cfg.MaxWeeklyMinutes
		}
		assigned := in.AssignedMinutes[teacher.ID]
		if WouldExceedCap(assigned, duration, capMinutes) {
			// Silent exclusion: over-cap candidates never surface.
			continue
		}
		if teacher.HeadOfDepartment && WouldExceedCap(assigned, duration+cfg.HODMinMinutesPerWeek, capMinutes) {
			continue
		}

		score, reasons := scoreTeacher(teacher, in.Slot.SubjectCode, assigned, capMinutes)
		candidates = append(candidates, models.SubstitutionCandidate{
			TeacherID:        teacher.ID,
			EmploymentCode:   teacher.EmploymentCode,
			FullName:         teacher.FullName,
			MatchScore:       score,
			AvailableMinutes: RemainingCapacity(assigned, capMinutes),
			Reason:           strings.Join(reasons, ", "),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.AvailableMinutes != b.AvailableMinutes {
			return a.AvailableMinutes > b.AvailableMinutes
		}
		return a.EmploymentCode < b.EmploymentCode
	})
	return candidates
}

// Top returns the leading candidates capped at limit. A non-positive limit
// returns the full list.
func Top(candidates []models.SubstitutionCandidate, limit int) []models.SubstitutionCandidate {
	if limit <= 0 || limit >= len(candidates) {
		return candidates
	}
	return candidates[:limit]
}

// scoreTeacher computes the composite match score together with a
// human-readable explanation of each contributing term.
func scoreTeacher(teacher *models.Teacher, subjectCode string, assigned, capMinutes int) (float64, []string) {
	score := 0.0
	var reasons []string

	if teacher.QualifiedFor(subjectCode) {
		score += scoreSubjectMatch
		reasons = append(reasons, fmt.Sprintf("qualified for %s", subjectCode))
	}

	loadRatio := float64(assigned) / float64(capMinutes)
	switch {
	case loadRatio < lightLoadFraction:
		score += scoreLoadLight
		reasons = append(reasons, "light weekly load")
	case loadRatio < normalLoadFraction:
		score += scoreLoadModerate
		reasons = append(reasons, "moderate weekly load")
	default:
		score += scoreLoadHeavy
		reasons = append(reasons, "heavy weekly load")
	}

	// Availability was verified during filtering; recorded as a bonus so
	// the score stays explainable.
	score += scoreAvailability
	reasons = append(reasons, "available at the requested time")

	return score, reasons
}

func blocked(records []*models.TeacherAvailability, start, end int) bool {
	for _, record := range records {
		if record.Blocks(start, end) {
			return true
		}
	}
	return false
}
