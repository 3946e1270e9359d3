package models

import (
	"fmt"
	"time"
)

// Weekday enumerates the teaching days. Sunday is not a teaching day and is
// rejected at the validation boundary.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// Weekdays lists the allowed teaching days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Valid reports whether the weekday is one of the allowed teaching days.
func (d Weekday) Valid() bool {
	for _, day := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Offset returns the day's distance from the start of the teaching week,
// or -1 for an unknown day.
func (d Weekday) Offset() int {
	for i, day := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// SlotStatus tracks a slot through its lifecycle. Slots are never deleted
// once referenced by history; cancellation is a status change.
type SlotStatus string

const (
	SlotScheduled   SlotStatus = "scheduled"
	SlotCancelled   SlotStatus = "cancelled"
	SlotSubstituted SlotStatus = "substituted"
	SlotCompleted   SlotStatus = "completed"
)

// Valid reports whether the status is a known slot status.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotScheduled, SlotCancelled, SlotSubstituted, SlotCompleted:
		return true
	}
	return false
}

// Business hours boundaries in minutes from midnight.
const (
	BusinessDayStart = 9 * 60  // 09:00
	BusinessDayEnd   = 17 * 60 // 17:00
)

// TimeSlot is a scheduled teaching period. Times are integer minutes from
// midnight; half-open [StartMinute, EndMinute).
type TimeSlot struct {
	ID          string     `db:"id" json:"id"`
	ScheduleID  string     `db:"schedule_id" json:"schedule_id"`
	WeekStart   time.Time  `db:"week_start" json:"week_start"`
	Day         Weekday    `db:"day_of_week" json:"day_of_week"`
	StartMinute int        `db:"start_minute" json:"start_minute"`
	EndMinute   int        `db:"end_minute" json:"end_minute"`
	Location    *string    `db:"location" json:"location,omitempty"`
	TeacherID   *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	SubjectCode string     `db:"subject_code" json:"subject_code"`
	Status      SlotStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Duration returns the slot length in minutes.
func (s *TimeSlot) Duration() int {
	return s.EndMinute - s.StartMinute
}

// LocationName returns the location or "" when unset.
func (s *TimeSlot) LocationName() string {
	if s.Location == nil {
		return ""
	}
	return *s.Location
}

// Teacher returns the assigned teacher id or "" when vacant.
func (s *TimeSlot) Teacher() string {
	if s.TeacherID == nil {
		return ""
	}
	return *s.TeacherID
}

// Date resolves the calendar date the slot falls on, from the week start
// and the day of week.
func (s *TimeSlot) Date() time.Time {
	offset := s.Day.Offset()
	if offset < 0 {
		offset = 0
	}
	return s.WeekStart.AddDate(0, 0, offset)
}

// Validate enforces the slot invariants. Malformed slots are rejected here,
// before they can reach the detector or ranker.
func (s *TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("day %q is not a teaching day (Monday-Saturday)", s.Day)
	}
	if s.StartMinute < 0 || s.EndMinute > 24*60-1 {
		return fmt.Errorf("slot times must be within a single day")
	}
	if s.StartMinute >= s.EndMinute {
		return fmt.Errorf("slot start (%d) must be before end (%d)", s.StartMinute, s.EndMinute)
	}
	if s.StartMinute < BusinessDayStart || s.EndMinute > BusinessDayEnd {
		return fmt.Errorf("slot %s-%s is outside business hours 09:00-17:00",
			FormatMinute(s.StartMinute), FormatMinute(s.EndMinute))
	}
	if s.SubjectCode == "" {
		return fmt.Errorf("subject code is required")
	}
	if s.Status != "" && !s.Status.Valid() {
		return fmt.Errorf("unknown slot status %q", s.Status)
	}
	return nil
}

// FormatMinute renders a minute-of-day offset as HH:MM.
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseMinute converts an HH:MM string to a minute-of-day offset.
func ParseMinute(value string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(value, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return h*60 + m, nil
}

// SlotFilter describes query params for listing slots.
type SlotFilter struct {
	ScheduleID string
	TeacherID  string
	Day        string
	Status     string
	WeekStart  *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
