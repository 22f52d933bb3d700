package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// ReminderStatus represents the lifecycle state of a notification log entry.
type ReminderStatus string

const (
	StatusPending ReminderStatus = "PENDING"
	StatusSent    ReminderStatus = "SENT"
	StatusFailed  ReminderStatus = "FAILED"
)

func (s ReminderStatus) String() string { return string(s) }

func (s ReminderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsLive reports whether the status blocks further reminders for its event.
// Failed entries do not block: the event stays eligible on the next tick.
func (s ReminderStatus) IsLive() bool {
	return s == StatusPending || s == StatusSent
}

func ParseReminderStatusFromString(s string) (ReminderStatus, error) {
	st := ReminderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// NotificationLogEntry is one attempted reminder for a calendar event. The log
// is append-only: a retry creates a new entry, terminal entries are never
// mutated again. At most one entry per event may be live (Pending or Sent) at
// a time; the storage layer enforces that with a partial unique index.
type NotificationLogEntry struct {
	ID                string
	EventID           string
	RecipientEmail    string
	Status            ReminderStatus
	ProviderMessageID *string
	SentAt            *time.Time
	ErrorMessage      *string
	CreatedAt         time.Time
}

func (e *NotificationLogEntry) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: log entry is required", ErrValidation)
	}
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if strings.TrimSpace(e.RecipientEmail) == "" {
		return fmt.Errorf("%w: recipient email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(e.RecipientEmail); err != nil {
		return fmt.Errorf("%w: invalid recipient email %q", ErrValidation, e.RecipientEmail)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, e.Status)
	}
	return nil
}

// ReminderSetting is the process-wide reminder configuration. It is read
// fresh at the start of every tick and passed down as a value so a mid-run
// admin change never produces a half-old, half-new tick.
type ReminderSetting struct {
	MinutesBefore int
	Enabled       bool
	UpdatedAt     time.Time
}

func (s ReminderSetting) Validate() error {
	if s.MinutesBefore <= 0 {
		return fmt.Errorf("%w: minutes before must be positive", ErrValidation)
	}
	return nil
}

// LeadTime is the configured gap between "reminder goes out" and "lesson starts".
func (s ReminderSetting) LeadTime() time.Duration {
	return time.Duration(s.MinutesBefore) * time.Minute
}

// RunSummary is the outcome of one pipeline tick.
type RunSummary struct {
	Success   bool
	Scheduled int
	Skipped   int
	Errors    []string
}
