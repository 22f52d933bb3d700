package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"gorm.io/gorm"
)

func createCalendarEventsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_calendar_events",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CalendarEventModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_calendar_events_start_time ON calendar_events (start_time)`,
				`CREATE INDEX IF NOT EXISTS idx_calendar_events_tutor_id ON calendar_events (tutor_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_calendar_events_google_event_id ON calendar_events (google_event_id) WHERE google_event_id <> ''`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CalendarEventModel{})
		},
	}
}
