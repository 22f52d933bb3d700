package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"gorm.io/gorm"
)

func createReminderSettingsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_reminder_settings",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ReminderSettingModel{}); err != nil {
				return err
			}
			// Seed the single configuration row so the first tick has defaults.
			return tx.Exec(`INSERT INTO reminder_settings (id, minutes_before, enabled, updated_at)
				VALUES (1, 20, true, NOW())
				ON CONFLICT (id) DO NOTHING`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ReminderSettingModel{})
		},
	}
}
