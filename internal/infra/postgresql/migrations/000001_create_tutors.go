package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"gorm.io/gorm"
)

func createTutorsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_tutors",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TutorModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_tutors_email ON tutors (email)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TutorModel{})
		},
	}
}
