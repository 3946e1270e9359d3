package engine

import "github.com/edusys-id/substitution-api/internal/models"

// SumAssignedMinutes totals the durations of a teacher's committed slots.
// Only scheduled and substituted slots count toward the weekly load.
func SumAssignedMinutes(slots []*models.TimeSlot) int {
	total := 0
	for _, slot := range slots {
		switch slot.Status {
		case models.SlotScheduled, models.SlotSubstituted:
			total += slot.Duration()
		}
	}
	return total
}

// RemainingCapacity returns capMinutes minus assigned minutes. The result
// may be negative when a teacher is over cap; callers must check the sign
// explicitly, no clamping happens here.
func RemainingCapacity(assignedMinutes, capMinutes int) int {
	return capMinutes - assignedMinutes
}

// WouldExceedCap reports whether adding additionalMinutes on top of
// currentMinutes pushes past capMinutes. Landing exactly on the cap is
// allowed; only a strict excess is rejected.
func WouldExceedCap(currentMinutes, additionalMinutes, capMinutes int) bool {
	return currentMinutes+additionalMinutes > capMinutes
}
