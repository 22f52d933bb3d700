package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the HTTP surface and the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	pipelineRunsTotal     *prometheus.CounterVec
	remindersSentTotal    prometheus.Counter
	remindersFailedTotal  *prometheus.CounterVec
	remindersSkippedTotal *prometheus.CounterVec
	sendDuration          prometheus.Histogram
	windowCandidates      prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reminder_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reminder_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		pipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reminder_engine",
				Name:      "pipeline_runs_total",
				Help:      "Total number of pipeline ticks by result.",
			},
			[]string{"result"},
		),
		remindersSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "reminder_engine",
				Name:      "reminders_sent_total",
				Help:      "Total number of reminder emails delivered.",
			},
		),
		remindersFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reminder_engine",
				Name:      "reminders_failed_total",
				Help:      "Total number of reminder attempts that ended failed, by reason.",
			},
			[]string{"reason"},
		),
		remindersSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reminder_engine",
				Name:      "reminders_skipped_total",
				Help:      "Total number of window candidates skipped, by reason.",
			},
			[]string{"reason"},
		),
		sendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "reminder_engine",
				Name:      "reminder_send_duration_seconds",
				Help:      "Mail provider send duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		windowCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "reminder_engine",
				Name:      "window_candidates",
				Help:      "Number of events selected by the window query per tick.",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.pipelineRunsTotal,
		m.remindersSentTotal,
		m.remindersFailedTotal,
		m.remindersSkippedTotal,
		m.sendDuration,
		m.windowCandidates,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncPipelineRun(result string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(result))
	if label == "" {
		label = "unknown"
	}
	m.pipelineRunsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) IncReminderSent() {
	if m == nil {
		return
	}
	m.remindersSentTotal.Inc()
}

func (m *Metrics) IncReminderFailed(reason string) {
	if m == nil {
		return
	}
	m.remindersFailedTotal.WithLabelValues(normalizeReason(reason)).Inc()
}

func (m *Metrics) IncReminderSkipped(reason string) {
	if m == nil {
		return
	}
	m.remindersSkippedTotal.WithLabelValues(normalizeReason(reason)).Inc()
}

func (m *Metrics) ObserveSendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.Observe(seconds)
}

func (m *Metrics) ObserveWindowCandidates(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.windowCandidates.Observe(float64(count))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeReason(reason string) string {
	normalized := strings.ToLower(strings.TrimSpace(reason))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
