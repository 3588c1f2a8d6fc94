package utils

import "time"

// DaysUntil counts calendar days from now to due, reading both on now's
// wall clock. Zero means due today; negative means overdue.
func DaysUntil(now, due time.Time) int {
	due = due.In(now.Location())
	return int(civilDay(due).Sub(civilDay(now)).Hours()) / 24
}

// civilDay pins the calendar date of t to UTC midnight, where every day is
// 24 hours long.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
