package domain

import "time"

// CalendarEvent is a synced lesson slot. The calendar sync job owns these
// rows; the reminder pipeline only reads start times and ownership.
type CalendarEvent struct {
	ID            string
	TutorID       string
	GoogleEventID string
	Summary       string
	StartTime     time.Time
	EndTime       time.Time
	Location      string
}

// Tutor is the reminder recipient for the events they own.
type Tutor struct {
	ID    string
	Email string
	Name  string
}
