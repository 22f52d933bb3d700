package repository

import (
	"context"
	"errors"
	"time"

	"github.com/linguaflow/reminder-engine/internal/domain"
	"gorm.io/gorm"
)

type EventRepository interface {
	ListStartingBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.CalendarEvent, error)
	GetByID(ctx context.Context, id string) (*domain.CalendarEvent, error)
}

type GormEventRepo struct {
	db *gorm.DB
}

func NewGormEventRepo(db *gorm.DB) *GormEventRepo {
	return &GormEventRepo{db: db}
}

// ListStartingBetween returns events with start_time in [from, to), ordered by
// start time. The half-open range lets adjacent tick windows tile without
// covering a boundary event twice.
func (r *GormEventRepo) ListStartingBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.CalendarEvent, error) {
	query := r.db.WithContext(ctx).
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []CalendarEventModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	events := make([]domain.CalendarEvent, 0, len(models))
	for i := range models {
		events = append(events, *eventModelToDomain(&models[i]))
	}

	return events, nil
}

func (r *GormEventRepo) GetByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	var model CalendarEventModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return eventModelToDomain(&model), nil
}
