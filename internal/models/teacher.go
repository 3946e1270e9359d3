package models

import (
	"time"

	"github.com/lib/pq"
)

// TeacherStatus captures the employment status of a teacher. Only active
// teachers may be suggested as substitutes.
type TeacherStatus string

const (
	TeacherActive    TeacherStatus = "active"
	TeacherOnLeave   TeacherStatus = "on_leave"
	TeacherResigned  TeacherStatus = "resigned"
	TeacherSuspended TeacherStatus = "suspended"
)

// Valid reports whether the status is a known teacher status.
func (s TeacherStatus) Valid() bool {
	switch s {
	case TeacherActive, TeacherOnLeave, TeacherResigned, TeacherSuspended:
		return true
	}
	return false
}

// DefaultMaxWeeklyMinutes is the standard weekly teaching cap (18 hours).
const DefaultMaxWeeklyMinutes = 1080

// Teacher represents an instructor record. EmploymentCode is unique and
// serves as the final tie-break key when ranking substitutes.
type Teacher struct {
	ID               string         `db:"id" json:"id"`
	EmploymentCode   string         `db:"employment_code" json:"employment_code"`
	Email            string         `db:"email" json:"email"`
	FullName         string         `db:"full_name" json:"full_name"`
	Phone            *string        `db:"phone" json:"phone,omitempty"`
	Subjects         pq.StringArray `db:"subjects" json:"subjects"`
	MaxWeeklyMinutes int            `db:"max_weekly_minutes" json:"max_weekly_minutes"`
	MinWeeklyMinutes int            `db:"min_weekly_minutes" json:"min_weekly_minutes"`
	HeadOfDepartment bool           `db:"head_of_department" json:"head_of_department"`
	Status           TeacherStatus  `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// QualifiedFor reports whether the teacher is qualified to teach the subject.
func (t *Teacher) QualifiedFor(subjectCode string) bool {
	for _, code := range t.Subjects {
		if code == subjectCode {
			return true
		}
	}
	return false
}

// WeeklyCap returns the teacher's cap, falling back to the default when the
// record predates per-teacher caps.
func (t *Teacher) WeeklyCap() int {
	if t.MaxWeeklyMinutes > 0 {
		return t.MaxWeeklyMinutes
	}
	return DefaultMaxWeeklyMinutes
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Status    *TeacherStatus
	Subject   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
