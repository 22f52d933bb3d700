package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseReminderStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    ReminderStatus
		wantErr bool
	}{
		{name: "pending upper", input: "PENDING", want: StatusPending},
		{name: "sent lower", input: "sent", want: StatusSent},
		{name: "failed padded", input: "  failed ", want: StatusFailed},
		{name: "unknown", input: "queued", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseReminderStatusFromString(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReminderStatusIsLive(t *testing.T) {
	t.Parallel()

	if !StatusPending.IsLive() {
		t.Fatal("PENDING should be live")
	}
	if !StatusSent.IsLive() {
		t.Fatal("SENT should be live")
	}
	if StatusFailed.IsLive() {
		t.Fatal("FAILED should not be live")
	}
}

func TestNotificationLogEntryValidate(t *testing.T) {
	t.Parallel()

	valid := NotificationLogEntry{
		EventID:        "evt-1",
		RecipientEmail: "tutor@example.com",
		Status:         StatusPending,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *NotificationLogEntry)
	}{
		{name: "missing event id", mutate: func(e *NotificationLogEntry) { e.EventID = " " }},
		{name: "missing recipient", mutate: func(e *NotificationLogEntry) { e.RecipientEmail = "" }},
		{name: "malformed recipient", mutate: func(e *NotificationLogEntry) { e.RecipientEmail = "not-an-address" }},
		{name: "invalid status", mutate: func(e *NotificationLogEntry) { e.Status = "QUEUED" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entry := valid
			tt.mutate(&entry)
			err := entry.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestReminderSettingLeadTime(t *testing.T) {
	t.Parallel()

	setting := ReminderSetting{MinutesBefore: 20, Enabled: true}
	if err := setting.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := setting.LeadTime(); got != 20*time.Minute {
		t.Fatalf("LeadTime() = %s, want 20m", got)
	}

	if err := (ReminderSetting{MinutesBefore: 0}).Validate(); err == nil {
		t.Fatal("expected error for zero minutes before")
	}
}
