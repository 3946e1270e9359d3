package models

import "time"

// ConflictType identifies the kind of timetable violation detected.
type ConflictType string

const (
	ConflictTimeOverlap ConflictType = "time_overlap"
	ConflictLocation    ConflictType = "location_conflict"
	ConflictInstructor  ConflictType = "instructor_conflict"
	ConflictTravelTime  ConflictType = "travel_time"
)

// ConflictSeverity grades how disruptive a conflict is.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityHigh     ConflictSeverity = "high"
	SeverityMedium   ConflictSeverity = "medium"
	SeverityLow      ConflictSeverity = "low"
)

// Conflict is a derived record describing a violation between one or two
// slots. Slot2ID is nil for single-slot conflict types.
type Conflict struct {
	ID          string           `db:"id" json:"id"`
	ScheduleID  string           `db:"schedule_id" json:"schedule_id"`
	Type        ConflictType     `db:"conflict_type" json:"conflict_type"`
	Severity    ConflictSeverity `db:"severity" json:"severity"`
	SlotID      string           `db:"slot_id" json:"slot_id"`
	Slot2ID     *string          `db:"slot2_id" json:"slot2_id,omitempty"`
	Description string           `db:"description" json:"description"`
	DetectedAt  time.Time        `db:"detected_at" json:"detected_at"`
}

// ConflictReport is the full result of one detection run over a schedule.
// Each run replaces the previous conflict set wholesale.
type ConflictReport struct {
	ScheduleID  string         `json:"schedule_id"`
	Conflicts   []Conflict     `json:"conflicts"`
	CountByType map[string]int `json:"count_by_type"`
	GeneratedAt time.Time      `json:"generated_at"`
	Annotations []string       `json:"annotations,omitempty"`
}
