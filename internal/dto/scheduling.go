package dto

import (
	"sort"

	"github.com/edusys-id/substitution-api/internal/models"
)

// SlotView is the wire representation of a time slot with formatted times.
type SlotView struct {
	ID              string  `json:"id"`
	ScheduleID      string  `json:"schedule_id"`
	WeekStart       string  `json:"week_start"`
	Day             string  `json:"day_of_week"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Location        *string `json:"location,omitempty"`
	TeacherID       *string `json:"teacher_id,omitempty"`
	SubjectCode     string  `json:"subject_code"`
	Status          string  `json:"status"`
}

// NewSlotView converts a slot model into its wire shape.
func NewSlotView(slot models.TimeSlot) SlotView {
	return SlotView{
		ID:              slot.ID,
		ScheduleID:      slot.ScheduleID,
		WeekStart:       slot.WeekStart.Format("2006-01-02"),
		Day:             string(slot.Day),
		StartTime:       models.FormatMinute(slot.StartMinute),
		EndTime:         models.FormatMinute(slot.EndMinute),
		DurationMinutes: slot.Duration(),
		Location:        slot.Location,
		TeacherID:       slot.TeacherID,
		SubjectCode:     slot.SubjectCode,
		Status:          string(slot.Status),
	}
}

// NewSlotViews converts a slice of slots.
func NewSlotViews(slots []models.TimeSlot) []SlotView {
	views := make([]SlotView, len(slots))
	for i, slot := range slots {
		views[i] = NewSlotView(slot)
	}
	return views
}

// TimetableDay groups a day's slots in start order.
type TimetableDay struct {
	Day   string     `json:"day_of_week"`
	Slots []SlotView `json:"slots"`
}

// GroupByDay arranges slots into per-day groups ordered Monday through
// Saturday, each day's slots sorted by start time.
func GroupByDay(slots []models.TimeSlot) []TimetableDay {
	byDay := map[models.Weekday][]SlotView{}
	for _, slot := range slots {
		byDay[slot.Day] = append(byDay[slot.Day], NewSlotView(slot))
	}

	days := make([]TimetableDay, 0, len(byDay))
	for _, day := range models.Weekdays {
		views, ok := byDay[day]
		if !ok {
			continue
		}
		sort.Slice(views, func(i, j int) bool {
			return views[i].StartTime < views[j].StartTime
		})
		days = append(days, TimetableDay{Day: string(day), Slots: views})
	}
	return days
}
