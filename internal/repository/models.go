package repository

import (
	"time"

	"github.com/linguaflow/reminder-engine/internal/domain"
)

// CalendarEventModel is the persistence model for the calendar_events table.
// Rows are written by the calendar sync job; the pipeline only reads them.
type CalendarEventModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	TutorID       string    `gorm:"type:uuid;not null"`
	GoogleEventID string    `gorm:"type:varchar(255)"`
	Summary       string    `gorm:"type:text"`
	StartTime     time.Time `gorm:"type:timestamptz;not null"`
	EndTime       time.Time `gorm:"type:timestamptz"`
	Location      string    `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CalendarEventModel) TableName() string {
	return "calendar_events"
}

// TutorModel is the persistence model for tutors.
type TutorModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Email     string `gorm:"type:varchar(255);not null"`
	Name      string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TutorModel) TableName() string {
	return "tutors"
}

// ReminderSettingModel is the single-row persistence model for reminder_settings.
type ReminderSettingModel struct {
	ID            int  `gorm:"primaryKey"`
	MinutesBefore int  `gorm:"not null;default:20"`
	Enabled       bool `gorm:"not null;default:true"`
	UpdatedAt     time.Time
}

func (ReminderSettingModel) TableName() string {
	return "reminder_settings"
}

// NotificationLogModel is the persistence model for notification_log.
type NotificationLogModel struct {
	ID                string                `gorm:"type:uuid;primaryKey"`
	EventID           string                `gorm:"type:uuid;not null"`
	RecipientEmail    string                `gorm:"type:varchar(255);not null"`
	Status            domain.ReminderStatus `gorm:"type:varchar(20);not null"`
	ProviderMessageID *string               `gorm:"type:varchar(255)"`
	SentAt            *time.Time            `gorm:"type:timestamptz"`
	ErrorMessage      *string               `gorm:"type:text"`
	CreatedAt         time.Time
}

func (NotificationLogModel) TableName() string {
	return "notification_log"
}

func eventModelToDomain(m *CalendarEventModel) *domain.CalendarEvent {
	if m == nil {
		return nil
	}

	return &domain.CalendarEvent{
		ID:            m.ID,
		TutorID:       m.TutorID,
		GoogleEventID: m.GoogleEventID,
		Summary:       m.Summary,
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		Location:      m.Location,
	}
}

func tutorModelToDomain(m *TutorModel) *domain.Tutor {
	if m == nil {
		return nil
	}

	return &domain.Tutor{
		ID:    m.ID,
		Email: m.Email,
		Name:  m.Name,
	}
}

func settingModelToDomain(m *ReminderSettingModel) domain.ReminderSetting {
	if m == nil {
		return domain.ReminderSetting{}
	}

	return domain.ReminderSetting{
		MinutesBefore: m.MinutesBefore,
		Enabled:       m.Enabled,
		UpdatedAt:     m.UpdatedAt,
	}
}

func logModelFromDomain(e *domain.NotificationLogEntry) *NotificationLogModel {
	if e == nil {
		return nil
	}

	return &NotificationLogModel{
		ID:                e.ID,
		EventID:           e.EventID,
		RecipientEmail:    e.RecipientEmail,
		Status:            e.Status,
		ProviderMessageID: e.ProviderMessageID,
		SentAt:            e.SentAt,
		ErrorMessage:      e.ErrorMessage,
		CreatedAt:         e.CreatedAt,
	}
}

func logModelToDomain(m *NotificationLogModel) *domain.NotificationLogEntry {
	if m == nil {
		return nil
	}

	return &domain.NotificationLogEntry{
		ID:                m.ID,
		EventID:           m.EventID,
		RecipientEmail:    m.RecipientEmail,
		Status:            m.Status,
		ProviderMessageID: m.ProviderMessageID,
		SentAt:            m.SentAt,
		ErrorMessage:      m.ErrorMessage,
		CreatedAt:         m.CreatedAt,
	}
}
