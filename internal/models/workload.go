package models

import "time"

// WeeklyWorkload is a materialized aggregate of a teacher's committed
// minutes for one week. There is at most one row per (teacher, week_start)
// and it is owned exclusively by the workload service; it is recomputed
// whenever a slot's teacher or time changes, never authored directly.
type WeeklyWorkload struct {
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	WeekStart       time.Time `db:"week_start" json:"week_start"`
	AssignedMinutes int       `db:"assigned_minutes" json:"assigned_minutes"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// WorkloadSummary pairs the aggregate with the teacher's cap for API output.
type WorkloadSummary struct {
	TeacherID        string    `json:"teacher_id"`
	WeekStart        time.Time `json:"week_start"`
	AssignedMinutes  int       `json:"assigned_minutes"`
	MaxWeeklyMinutes int       `json:"max_weekly_minutes"`
	RemainingMinutes int       `json:"remaining_minutes"`
	OverCap          bool      `json:"over_cap"`
}
