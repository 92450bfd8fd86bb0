package model

import "time"

// TimeLog records time spent on a task. Logs feed the dashboards'
// total-hours figure; they carry no other behavior.
type TimeLog struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	TaskID          int64      `json:"task_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Description     string     `json:"description"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Open reports whether the log is still running (no end time recorded).
func (l *TimeLog) Open() bool {
	return l.EndTime == nil
}

// DurationHours converts the recorded minutes to hours.
func (l *TimeLog) DurationHours() float64 {
	return float64(l.DurationMinutes) / 60.0
}
