package engine

import "github.com/edusys-id/substitution-api/internal/models"

// Interval is a half-open [Start, End) time range on a teaching day,
// expressed in integer minutes from midnight.
type Interval struct {
	Day   models.Weekday
	Start int
	End   int
}

// Overlaps reports whether two intervals intersect. Intervals on different
// days never overlap, and touching endpoints (a ends exactly when b starts)
// do not count as overlap. This predicate is the single overlap definition
// used by every conflict check in the engine.
func (i Interval) Overlaps(other Interval) bool {
	if i.Day != other.Day {
		return false
	}
	return i.Start < other.End && other.Start < i.End
}

// slotInterval projects a slot onto its interval.
func slotInterval(s *models.TimeSlot) Interval {
	return Interval{Day: s.Day, Start: s.StartMinute, End: s.EndMinute}
}
