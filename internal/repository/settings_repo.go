package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/linguaflow/reminder-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsRowID pins the single configuration row.
const settingsRowID = 1

type SettingsRepository interface {
	Get(ctx context.Context) (domain.ReminderSetting, error)
	Update(ctx context.Context, setting domain.ReminderSetting) (domain.ReminderSetting, error)
}

type GormSettingsRepo struct {
	db *gorm.DB
}

func NewGormSettingsRepo(db *gorm.DB) *GormSettingsRepo {
	return &GormSettingsRepo{db: db}
}

func (r *GormSettingsRepo) Get(ctx context.Context) (domain.ReminderSetting, error) {
	var model ReminderSettingModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ReminderSetting{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ReminderSetting{}, err
	}
	return settingModelToDomain(&model), nil
}

func (r *GormSettingsRepo) Update(ctx context.Context, setting domain.ReminderSetting) (domain.ReminderSetting, error) {
	if err := setting.Validate(); err != nil {
		return domain.ReminderSetting{}, err
	}

	model := ReminderSettingModel{
		ID:            settingsRowID,
		MinutesBefore: setting.MinutesBefore,
		Enabled:       setting.Enabled,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"minutes_before", "enabled", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return domain.ReminderSetting{}, fmt.Errorf("failed to update reminder settings: %w", err)
	}

	return settingModelToDomain(&model), nil
}
