package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguaflow/reminder-engine/internal/domain"
	"github.com/linguaflow/reminder-engine/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

// ReminderRunner triggers one pipeline tick. Satisfied by *service.Pipeline.
type ReminderRunner interface {
	Run(ctx context.Context) domain.RunSummary
}

// NotificationReader exposes the audit log. Satisfied by the notification log
// repository.
type NotificationReader interface {
	List(ctx context.Context, params repository.LogListParams) ([]domain.NotificationLogEntry, int64, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.NotificationLogEntry, error)
}

// SettingsStore reads and writes the single reminder configuration row.
type SettingsStore interface {
	Get(ctx context.Context) (domain.ReminderSetting, error)
	Update(ctx context.Context, setting domain.ReminderSetting) (domain.ReminderSetting, error)
}

type ReminderHandler struct {
	runner        ReminderRunner
	notifications NotificationReader
	settings      SettingsStore
}

func NewReminderHandler(runner ReminderRunner, notifications NotificationReader, settings SettingsStore) (*ReminderHandler, error) {
	if runner == nil {
		return nil, fmt.Errorf("reminder runner is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification reader is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	return &ReminderHandler{
		runner:        runner,
		notifications: notifications,
		settings:      settings,
	}, nil
}

func RegisterReminderRoutes(router fiber.Router, runner ReminderRunner, notifications NotificationReader, settings SettingsStore) error {
	h, err := NewReminderHandler(runner, notifications, settings)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/reminders/run", h.RunReminders)
	v1.Get("/notifications", h.ListNotifications)
	v1.Get("/events/:id/notifications", h.ListEventNotifications)
	v1.Get("/settings", h.GetSettings)
	v1.Put("/settings", h.UpdateSettings)

	return nil
}

type runSummaryResponse struct {
	Success   bool     `json:"success"`
	Scheduled int      `json:"scheduled"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

type notificationResponse struct {
	ID                string     `json:"id"`
	EventID           string     `json:"eventId"`
	RecipientEmail    string     `json:"recipientEmail"`
	Status            string     `json:"status"`
	ProviderMessageID *string    `json:"providerMessageId,omitempty"`
	SentAt            *time.Time `json:"sentAt,omitempty"`
	ErrorMessage      *string    `json:"errorMessage,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type listNotificationsResponse struct {
	Data []notificationResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type settingsResponse struct {
	MinutesBefore int       `json:"minutesBefore"`
	Enabled       bool      `json:"enabled"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type updateSettingsRequest struct {
	MinutesBefore *int  `json:"minutesBefore"`
	Enabled       *bool `json:"enabled"`
}

// RunReminders triggers one tick synchronously. External schedulers (cron,
// Cloud Scheduler) call this; it is safe to invoke concurrently with the
// internal ticker because the log's claim arbitration dedups across runs.
func (h *ReminderHandler) RunReminders(c *fiber.Ctx) error {
	summary := h.runner.Run(c.Context())

	status := fiber.StatusOK
	if !summary.Success {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(runSummaryResponse{
		Success:   summary.Success,
		Scheduled: summary.Scheduled,
		Skipped:   summary.Skipped,
		Errors:    summary.Errors,
	})
}

func (h *ReminderHandler) ListNotifications(c *fiber.Ctx) error {
	params, err := parseLogListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	entries, total, err := h.notifications.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listNotificationsResponse{
		Data: toNotificationResponses(entries),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *ReminderHandler) ListEventNotifications(c *fiber.Ctx) error {
	eventID := strings.TrimSpace(c.Params("id"))
	if eventID == "" {
		return toHTTPError(fmt.Errorf("%w: event id is required", domain.ErrValidation))
	}

	entries, err := h.notifications.ListByEvent(c.Context(), eventID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"eventId": eventID,
		"data":    toNotificationResponses(entries),
	})
}

func (h *ReminderHandler) GetSettings(c *fiber.Ctx) error {
	setting, err := h.settings.Get(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toSettingsResponse(setting))
}

// UpdateSettings accepts partial updates; omitted fields keep their current
// value. Takes effect from the next tick, which reads settings fresh.
func (h *ReminderHandler) UpdateSettings(c *fiber.Ctx) error {
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.MinutesBefore == nil && req.Enabled == nil {
		return toHTTPError(fmt.Errorf("%w: at least one of minutesBefore, enabled is required", domain.ErrValidation))
	}

	current, err := h.settings.Get(c.Context())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return toHTTPError(err)
	}

	if req.MinutesBefore != nil {
		current.MinutesBefore = *req.MinutesBefore
	}
	if req.Enabled != nil {
		current.Enabled = *req.Enabled
	}

	updated, err := h.settings.Update(c.Context(), current)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toSettingsResponse(updated))
}

func parseLogListParams(c *fiber.Ctx) (repository.LogListParams, error) {
	params := repository.LogListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.LogListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.LogListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseReminderStatusFromString(rawStatus)
		if err != nil {
			return repository.LogListParams{}, err
		}
		params.Status = &status
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.LogListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.LogListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func toNotificationResponses(entries []domain.NotificationLogEntry) []notificationResponse {
	responses := make([]notificationResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, toNotificationResponse(&entries[i]))
	}
	return responses
}

func toNotificationResponse(e *domain.NotificationLogEntry) notificationResponse {
	if e == nil {
		return notificationResponse{}
	}

	return notificationResponse{
		ID:                e.ID,
		EventID:           e.EventID,
		RecipientEmail:    e.RecipientEmail,
		Status:            e.Status.String(),
		ProviderMessageID: e.ProviderMessageID,
		SentAt:            e.SentAt,
		ErrorMessage:      e.ErrorMessage,
		CreatedAt:         e.CreatedAt,
	}
}

func toSettingsResponse(s domain.ReminderSetting) settingsResponse {
	return settingsResponse{
		MinutesBefore: s.MinutesBefore,
		Enabled:       s.Enabled,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
