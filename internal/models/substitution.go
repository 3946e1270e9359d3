package models

import "time"

// SubstitutionStatus tracks a substitution request through its workflow.
type SubstitutionStatus string

const (
	SubstitutionOpen      SubstitutionStatus = "open"
	SubstitutionSuggested SubstitutionStatus = "suggested"
	SubstitutionApplied   SubstitutionStatus = "applied"
	SubstitutionRejected  SubstitutionStatus = "rejected"
	SubstitutionCancelled SubstitutionStatus = "cancelled"
)

// Valid reports whether the status is a known substitution status.
func (s SubstitutionStatus) Valid() bool {
	switch s {
	case SubstitutionOpen, SubstitutionSuggested, SubstitutionApplied,
		SubstitutionRejected, SubstitutionCancelled:
		return true
	}
	return false
}

// SubstitutionCandidate is the ephemeral ranked output of the candidate
// ranker. It is never persisted as its own entity; the chosen candidate is
// copied onto the substitution request.
type SubstitutionCandidate struct {
	TeacherID        string  `json:"teacher_id"`
	EmploymentCode   string  `json:"employment_code"`
	FullName         string  `json:"full_name"`
	MatchScore       float64 `json:"match_score"`
	AvailableMinutes int     `json:"available_minutes"`
	Reason           string  `json:"reason"`
}

// SubstitutionRequest is the persisted record of an absence needing cover.
type SubstitutionRequest struct {
	ID                 string             `db:"id" json:"id"`
	SlotID             string             `db:"slot_id" json:"slot_id"`
	AbsentTeacherID    string             `db:"absent_teacher_id" json:"absent_teacher_id"`
	Date               time.Time          `db:"date" json:"date"`
	Status             SubstitutionStatus `db:"status" json:"status"`
	Priority           string             `db:"priority" json:"priority"`
	SuggestedTeacherID *string            `db:"suggested_teacher_id" json:"suggested_teacher_id,omitempty"`
	MatchScore         *float64           `db:"match_score" json:"match_score,omitempty"`
	Reason             *string            `db:"reason" json:"reason,omitempty"`
	Annotation         *string            `db:"annotation" json:"annotation,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// SubstitutionFilter describes query params for listing requests.
type SubstitutionFilter struct {
	Status    string
	TeacherID string
	Priority  string
	Page      int
	PageSize  int
}
