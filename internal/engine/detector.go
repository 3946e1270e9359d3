package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/edusys-id/substitution-api/internal/models"
)

// severityFor maps each conflict type to its fixed severity. Severity is a
// pure function of type; nothing else influences it.
func severityFor(t models.ConflictType) models.ConflictSeverity {
	switch t {
	case models.ConflictTimeOverlap:
		return models.SeverityHigh
	case models.ConflictLocation:
		return models.SeverityCritical
	case models.ConflictInstructor:
		return models.SeverityCritical
	case models.ConflictTravelTime:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// Detect scans the given slots and returns every timetable conflict among
// them. The scan is local and synchronous; the result is identical for any
// permutation of the input. Cancelled slots are skipped: they hold no room
// or teacher.
func Detect(scheduleID string, slots []*models.TimeSlot, cfg Config) models.ConflictReport {
	cfg = cfg.normalized()

	active := make([]*models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Status == models.SlotCancelled {
			continue
		}
		active = append(active, slot)
	}
	// Canonical order: pairwise checks then emit smaller slot id first
	// regardless of input order.
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	var conflicts []models.Conflict

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if !slotInterval(a).Overlaps(slotInterval(b)) {
				continue
			}
			conflicts = append(conflicts, pairConflict(scheduleID, models.ConflictTimeOverlap, a, b,
				fmt.Sprintf("slots overlap on %s: %s-%s and %s-%s", a.Day,
					models.FormatMinute(a.StartMinute), models.FormatMinute(a.EndMinute),
					models.FormatMinute(b.StartMinute), models.FormatMinute(b.EndMinute))))

			if a.LocationName() != "" && a.LocationName() == b.LocationName() {
				conflicts = append(conflicts, pairConflict(scheduleID, models.ConflictLocation, a, b,
					fmt.Sprintf("location %s is double-booked on %s", a.LocationName(), a.Day)))
			}
			if a.Teacher() != "" && a.Teacher() == b.Teacher() {
				conflicts = append(conflicts, pairConflict(scheduleID, models.ConflictInstructor, a, b,
					fmt.Sprintf("teacher %s is double-booked on %s", a.Teacher(), a.Day)))
			}
		}
	}

	conflicts = append(conflicts, travelConflicts(scheduleID, active, cfg.MinTravelMinutes)...)

	report := models.ConflictReport{
		ScheduleID:  scheduleID,
		Conflicts:   conflicts,
		CountByType: map[string]int{},
		GeneratedAt: time.Now().UTC(),
	}
	for _, c := range report.Conflicts {
		report.CountByType[string(c.Type)]++
	}
	return report
}

// travelConflicts checks adjacent slots within each day. Only back-to-back
// transitions incur travel cost, so non-adjacent pairs are not checked.
func travelConflicts(scheduleID string, slots []*models.TimeSlot, minTravel int) []models.Conflict {
	byDay := make(map[models.Weekday][]*models.TimeSlot)
	for _, slot := range slots {
		byDay[slot.Day] = append(byDay[slot.Day], slot)
	}

	var conflicts []models.Conflict
	for _, day := range models.Weekdays {
		daySlots := byDay[day]
		if len(daySlots) < 2 {
			continue
		}
		sort.Slice(daySlots, func(i, j int) bool {
			if daySlots[i].StartMinute != daySlots[j].StartMinute {
				return daySlots[i].StartMinute < daySlots[j].StartMinute
			}
			return daySlots[i].ID < daySlots[j].ID
		})
		for i := 0; i < len(daySlots)-1; i++ {
			cur, next := daySlots[i], daySlots[i+1]
			if cur.LocationName() == "" || next.LocationName() == "" || cur.LocationName() == next.LocationName() {
				continue
			}
			gap := next.StartMinute - cur.EndMinute
			if gap >= minTravel {
				continue
			}
			conflicts = append(conflicts, pairConflict(scheduleID, models.ConflictTravelTime, cur, next,
				fmt.Sprintf("only %d min between %s and %s on %s, %d required",
					gap, cur.LocationName(), next.LocationName(), day, minTravel)))
		}
	}
	return conflicts
}

func pairConflict(scheduleID string, t models.ConflictType, a, b *models.TimeSlot, description string) models.Conflict {
	first, second := a.ID, b.ID
	if t != models.ConflictTravelTime && second < first {
		first, second = second, first
	}
	return models.Conflict{
		ScheduleID:  scheduleID,
		Type:        t,
		Severity:    severityFor(t),
		SlotID:      first,
		Slot2ID:     &second,
		Description: description,
	}
}
