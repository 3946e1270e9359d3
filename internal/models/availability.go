package models

import "time"

// TeacherAvailability records a block of time on a specific date during
// which a teacher is unavailable. When both StartMinute and EndMinute are
// nil the whole day is blocked.
type TeacherAvailability struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Date        time.Time `db:"date" json:"date"`
	StartMinute *int      `db:"start_minute" json:"start_minute,omitempty"`
	EndMinute   *int      `db:"end_minute" json:"end_minute,omitempty"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// WholeDay reports whether the record blocks the entire day.
func (a *TeacherAvailability) WholeDay() bool {
	return a.StartMinute == nil && a.EndMinute == nil
}

// Blocks reports whether the unavailability overlaps the half-open window
// [start, end) in minutes of day.
func (a *TeacherAvailability) Blocks(start, end int) bool {
	if a.WholeDay() {
		return true
	}
	blockStart := 0
	if a.StartMinute != nil {
		blockStart = *a.StartMinute
	}
	blockEnd := 24 * 60
	if a.EndMinute != nil {
		blockEnd = *a.EndMinute
	}
	return blockStart < end && start < blockEnd
}
