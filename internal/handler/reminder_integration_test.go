package handler

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguaflow/reminder-engine/internal/domain"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"github.com/linguaflow/reminder-engine/internal/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestReminderIntegration_RunReminders(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{
		runFn: func(ctx context.Context) domain.RunSummary {
			return domain.RunSummary{Success: true, Scheduled: 3, Skipped: 1}
		},
	}

	app := newReminderTestApp(t, runner, &stubNotificationReader{}, &stubSettingsStore{})

	resp, body := performRequest(t, app, http.MethodPost, "/v1/reminders/run", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var summary map[string]any
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if summary["success"] != true {
		t.Fatalf("success = %v, want true", summary["success"])
	}
	if summary["scheduled"] != float64(3) {
		t.Fatalf("scheduled = %v, want 3", summary["scheduled"])
	}
}

func TestReminderIntegration_RunRemindersFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{
		runFn: func(ctx context.Context) domain.RunSummary {
			return domain.RunSummary{Success: false, Errors: []string{"window query failed: db gone"}}
		},
	}

	app := newReminderTestApp(t, runner, &stubNotificationReader{}, &stubSettingsStore{})

	resp, body := performRequest(t, app, http.MethodPost, "/v1/reminders/run", "")
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500, body=%s", resp.StatusCode, string(body))
	}
	if !strings.Contains(string(body), "db gone") {
		t.Fatalf("body = %s, want the tick error surfaced", string(body))
	}
}

func TestReminderIntegration_ListNotificationsPaginationAndFilters(t *testing.T) {
	t.Parallel()

	sentAt := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	providerID := "re-123"
	reader := &stubNotificationReader{
		listFn: func(ctx context.Context, params repository.LogListParams) ([]domain.NotificationLogEntry, int64, error) {
			if params.Page != 2 {
				t.Fatalf("page = %d, want 2", params.Page)
			}
			if params.PageSize != 10 {
				t.Fatalf("pageSize = %d, want 10", params.PageSize)
			}
			if params.Status == nil || *params.Status != domain.StatusSent {
				t.Fatalf("status = %v, want SENT", params.Status)
			}
			return []domain.NotificationLogEntry{
				{
					ID:                "log-1",
					EventID:           "evt-1",
					RecipientEmail:    "ana@example.com",
					Status:            domain.StatusSent,
					ProviderMessageID: &providerID,
					SentAt:            &sentAt,
					CreatedAt:         sentAt.Add(-time.Second),
				},
			}, 11, nil
		},
	}

	app := newReminderTestApp(t, &stubRunner{}, reader, &stubSettingsStore{})

	resp, body := performRequest(t, app, http.MethodGet, "/v1/notifications?page=2&pageSize=10&status=SENT", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed listNotificationsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Data) != 1 {
		t.Fatalf("data len = %d, want 1", len(parsed.Data))
	}
	if parsed.Data[0].Status != "SENT" {
		t.Fatalf("status = %q, want SENT", parsed.Data[0].Status)
	}
	if parsed.Meta.Total != 11 {
		t.Fatalf("total = %d, want 11", parsed.Meta.Total)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/notifications?status=SHOUTED", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown status", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/notifications?pageSize=1000", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for oversize page", resp.StatusCode)
	}
}

func TestReminderIntegration_ListEventNotifications(t *testing.T) {
	t.Parallel()

	reader := &stubNotificationReader{
		listByEventFn: func(ctx context.Context, eventID string) ([]domain.NotificationLogEntry, error) {
			if eventID != "evt-7" {
				t.Fatalf("eventID = %q, want evt-7", eventID)
			}
			return []domain.NotificationLogEntry{
				{ID: "log-1", EventID: "evt-7", RecipientEmail: "ana@example.com", Status: domain.StatusFailed},
				{ID: "log-2", EventID: "evt-7", RecipientEmail: "ana@example.com", Status: domain.StatusSent},
			}, nil
		},
	}

	app := newReminderTestApp(t, &stubRunner{}, reader, &stubSettingsStore{})

	resp, body := performRequest(t, app, http.MethodGet, "/v1/events/evt-7/notifications", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed struct {
		EventID string                 `json:"eventId"`
		Data    []notificationResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.EventID != "evt-7" {
		t.Fatalf("eventId = %q, want evt-7", parsed.EventID)
	}
	if len(parsed.Data) != 2 {
		t.Fatalf("data len = %d, want 2", len(parsed.Data))
	}
}

func TestReminderIntegration_Settings(t *testing.T) {
	t.Parallel()

	current := domain.ReminderSetting{MinutesBefore: 20, Enabled: true}
	store := &stubSettingsStore{
		getFn: func(ctx context.Context) (domain.ReminderSetting, error) {
			return current, nil
		},
		updateFn: func(ctx context.Context, setting domain.ReminderSetting) (domain.ReminderSetting, error) {
			if err := setting.Validate(); err != nil {
				return domain.ReminderSetting{}, err
			}
			current = setting
			return setting, nil
		},
	}

	app := newReminderTestApp(t, &stubRunner{}, &stubNotificationReader{}, store)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/settings", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var settings settingsResponse
	if err := json.Unmarshal(body, &settings); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if settings.MinutesBefore != 20 || !settings.Enabled {
		t.Fatalf("settings = %+v, want 20/enabled", settings)
	}

	// Partial update: only minutesBefore, enabled keeps its value.
	resp, body = performRequest(t, app, http.MethodPut, "/v1/settings", `{"minutesBefore":45}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &settings); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if settings.MinutesBefore != 45 || !settings.Enabled {
		t.Fatalf("settings = %+v, want 45/enabled", settings)
	}

	resp, _ = performRequest(t, app, http.MethodPut, "/v1/settings", `{"minutesBefore":-5}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for negative lead time", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPut, "/v1/settings", `{}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty update", resp.StatusCode)
	}
}

func TestHealthIntegration_LivezAndReadyz(t *testing.T) {
	t.Parallel()

	t.Run("livez returns 200", func(t *testing.T) {
		t.Parallel()

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		app.Get("/livez", LivezHandler())

		resp, body := performRequest(t, app, http.MethodGet, "/livez", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("readyz returns 200 when dependencies up", func(t *testing.T) {
		t.Parallel()

		sqlDB := sql.OpenDB(stubConnector{})
		t.Cleanup(func() { _ = sqlDB.Close() })

		rdb := newStubRedisClient(nil)
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sqlDB, rdb)

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("readyz returns 503 when dependencies down", func(t *testing.T) {
		t.Parallel()

		sqlDB := sql.OpenDB(stubConnector{pingErr: errors.New("postgres down")})
		t.Cleanup(func() { _ = sqlDB.Close() })

		rdb := newStubRedisClient(errors.New("redis down"))
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sqlDB, rdb)

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "")
		if resp.StatusCode != fiber.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503, body=%s", resp.StatusCode, string(body))
		}
	})
}

type stubRunner struct {
	runFn func(ctx context.Context) domain.RunSummary
}

func (s *stubRunner) Run(ctx context.Context) domain.RunSummary {
	if s.runFn != nil {
		return s.runFn(ctx)
	}
	return domain.RunSummary{Success: true}
}

type stubNotificationReader struct {
	listFn        func(ctx context.Context, params repository.LogListParams) ([]domain.NotificationLogEntry, int64, error)
	listByEventFn func(ctx context.Context, eventID string) ([]domain.NotificationLogEntry, error)
}

func (s *stubNotificationReader) List(
	ctx context.Context,
	params repository.LogListParams,
) ([]domain.NotificationLogEntry, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (s *stubNotificationReader) ListByEvent(ctx context.Context, eventID string) ([]domain.NotificationLogEntry, error) {
	if s.listByEventFn != nil {
		return s.listByEventFn(ctx, eventID)
	}
	return nil, nil
}

type stubSettingsStore struct {
	getFn    func(ctx context.Context) (domain.ReminderSetting, error)
	updateFn func(ctx context.Context, setting domain.ReminderSetting) (domain.ReminderSetting, error)
}

func (s *stubSettingsStore) Get(ctx context.Context) (domain.ReminderSetting, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.ReminderSetting{MinutesBefore: 20, Enabled: true}, nil
}

func (s *stubSettingsStore) Update(ctx context.Context, setting domain.ReminderSetting) (domain.ReminderSetting, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, setting)
	}
	return setting, nil
}

func newReminderTestApp(t *testing.T, runner ReminderRunner, reader NotificationReader, store SettingsStore) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterReminderRoutes(app, runner, reader, store); err != nil {
		t.Fatalf("RegisterReminderRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

type stubConnector struct {
	pingErr error
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn(c), nil
}

func (c stubConnector) Driver() driver.Driver {
	return stubDriver(c)
}

type stubDriver struct {
	pingErr error
}

func (d stubDriver) Open(string) (driver.Conn, error) {
	return stubConn(d), nil
}

type stubConn struct {
	pingErr error
}

func (c stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c stubConn) Close() error                        { return nil }
func (c stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c stubConn) Ping(context.Context) error          { return c.pingErr }

type stubRedisHook struct {
	pingErr error
}

func (h stubRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h stubRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "ping") {
			if h.pingErr != nil {
				cmd.SetErr(h.pingErr)
				return h.pingErr
			}
			cmd.SetErr(nil)
			return nil
		}
		cmd.SetErr(nil)
		return nil
	}
}

func (h stubRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			cmd.SetErr(nil)
		}
		return nil
	}
}

func newStubRedisClient(pingErr error) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:6379",
		DialTimeout:  time.Millisecond,
		ReadTimeout:  time.Millisecond,
		WriteTimeout: time.Millisecond,
	})
	rdb.AddHook(stubRedisHook{pingErr: pingErr})
	return rdb
}
