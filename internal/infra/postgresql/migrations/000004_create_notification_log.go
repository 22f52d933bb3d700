package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"gorm.io/gorm"
)

func createNotificationLogTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_notification_log",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.NotificationLogModel{}); err != nil {
				return err
			}
			indexes := []string{
				// The arbiter for "who gets to send": at most one live entry
				// per event, enforced by the database rather than a read.
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_notification_log_live_event ON notification_log (event_id) WHERE status IN ('PENDING', 'SENT')`,
				`CREATE INDEX IF NOT EXISTS idx_notification_log_event_id ON notification_log (event_id)`,
				`CREATE INDEX IF NOT EXISTS idx_notification_log_stale_pending ON notification_log (created_at) WHERE status = 'PENDING'`,
				`CREATE INDEX IF NOT EXISTS idx_notification_log_status_created ON notification_log (status, created_at)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.NotificationLogModel{})
		},
	}
}
