package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/linguaflow/reminder-engine/internal/domain"
	"gorm.io/gorm"
)

type LogListParams struct {
	Status   *domain.ReminderStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type NotificationLogRepository interface {
	// Claim inserts a Pending entry for the event. The partial unique index on
	// live statuses makes this insert the atomic arbiter under concurrent
	// ticks: the loser gets domain.ErrConflict and must skip the event.
	Claim(ctx context.Context, entry *domain.NotificationLogEntry) error
	HasLiveEntry(ctx context.Context, eventID string) (bool, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, providerMessageID string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
	ExpireStaleClaims(ctx context.Context, olderThan time.Time) (int64, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.NotificationLogEntry, error)
	List(ctx context.Context, params LogListParams) ([]domain.NotificationLogEntry, int64, error)
}

type GormNotificationLogRepo struct {
	db *gorm.DB
}

func NewGormNotificationLogRepo(db *gorm.DB) *GormNotificationLogRepo {
	return &GormNotificationLogRepo{db: db}
}

func (r *GormNotificationLogRepo) Claim(ctx context.Context, entry *domain.NotificationLogEntry) error {
	if entry == nil {
		return domain.ErrValidation
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	model := logModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolationError(err) {
			return domain.ErrConflict
		}
		return err
	}

	*entry = *logModelToDomain(model)
	return nil
}

func (r *GormNotificationLogRepo) HasLiveEntry(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&NotificationLogModel{}).
		Where("event_id = ? AND status IN ?", eventID, []domain.ReminderStatus{domain.StatusPending, domain.StatusSent}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormNotificationLogRepo) MarkSent(ctx context.Context, id string, sentAt time.Time, providerMessageID string) error {
	updates := map[string]any{
		"status":  domain.StatusSent,
		"sent_at": sentAt,
	}
	if strings.TrimSpace(providerMessageID) != "" {
		updates["provider_message_id"] = providerMessageID
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationLogModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormNotificationLogRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationLogModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":        domain.StatusFailed,
			"error_message": errorMessage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExpireStaleClaims fails Pending entries older than the cutoff. A claim left
// Pending by a crashed run would otherwise block its event forever through
// the live-status unique index.
func (r *GormNotificationLogRepo) ExpireStaleClaims(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&NotificationLogModel{}).
		Where("status = ? AND created_at < ?", domain.StatusPending, olderThan).
		Updates(map[string]any{
			"status":        domain.StatusFailed,
			"error_message": "claim expired before delivery completed",
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormNotificationLogRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.NotificationLogEntry, error) {
	var models []NotificationLogModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.NotificationLogEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *logModelToDomain(&models[i]))
	}

	return entries, nil
}

func (r *GormNotificationLogRepo) List(ctx context.Context, params LogListParams) ([]domain.NotificationLogEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&NotificationLogModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []NotificationLogModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.NotificationLogEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *logModelToDomain(&models[i]))
	}

	return entries, total, nil
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
