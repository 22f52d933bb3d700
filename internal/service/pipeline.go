package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linguaflow/reminder-engine/internal/domain"
	"github.com/linguaflow/reminder-engine/internal/mailer"
	"github.com/linguaflow/reminder-engine/internal/observability"
	"github.com/linguaflow/reminder-engine/internal/ratelimit"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultTickInterval = 5 * time.Minute
	defaultSendTimeout  = 10 * time.Second
	defaultSelectLimit  = 500

	mailRateScope = "email"

	skipReasonAlreadyReminded = "already_reminded"
	skipReasonLostRace        = "lost_race"
	failReasonTutorMissing    = "tutor_missing"
	failReasonSendError       = "send_error"
)

// Pipeline runs one reminder tick: read settings, select the window, dedup,
// claim, send, log. Every invocation is independent; correctness under
// overlapping ticks rests on the notification log's live-status unique index,
// not on anything held in memory here.
type Pipeline struct {
	settings repository.SettingsRepository
	events   repository.EventRepository
	tutors   repository.TutorRepository
	log      repository.NotificationLogRepository
	mail     mailer.Mailer
	limiter  ratelimit.RateLimiter
	logger   *zap.Logger
	metrics  *observability.Metrics

	tickInterval time.Duration
	claimTTL     time.Duration
	sendTimeout  time.Duration
	selectLimit  int
	now          func() time.Time
}

type PipelineOptions struct {
	TickInterval time.Duration
	ClaimTTL     time.Duration
	SendTimeout  time.Duration
	SelectLimit  int
}

func NewPipeline(
	settings repository.SettingsRepository,
	events repository.EventRepository,
	tutors repository.TutorRepository,
	log repository.NotificationLogRepository,
	mail mailer.Mailer,
	limiter ratelimit.RateLimiter,
	opts PipelineOptions,
	logger *zap.Logger,
) (*Pipeline, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings repository is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if tutors == nil {
		return nil, fmt.Errorf("tutor repository is required")
	}
	if log == nil {
		return nil, fmt.Errorf("notification log repository is required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	claimTTL := opts.ClaimTTL
	if claimTTL <= 0 {
		claimTTL = 2 * tickInterval
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	selectLimit := opts.SelectLimit
	if selectLimit <= 0 {
		selectLimit = defaultSelectLimit
	}

	return &Pipeline{
		settings:     settings,
		events:       events,
		tutors:       tutors,
		log:          log,
		mail:         mail,
		limiter:      limiter,
		logger:       logger,
		tickInterval: tickInterval,
		claimTTL:     claimTTL,
		sendTimeout:  sendTimeout,
		selectLimit:  selectLimit,
		now:          time.Now,
	}, nil
}

func (p *Pipeline) SetMetrics(metrics *observability.Metrics) {
	if p == nil {
		return
	}
	p.metrics = metrics
}

// Run executes one tick. It never panics the batch on a single event: per-event
// failures are recorded in the summary and the log, and the next event proceeds.
func (p *Pipeline) Run(ctx context.Context) domain.RunSummary {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = observability.WithRunID(ctx, uuid.NewString())
	logger := observability.WithContextLogger(p.logger, ctx)

	now := p.now().UTC()

	setting, err := p.settings.Get(ctx)
	if err != nil {
		logger.Error("failed to read reminder settings", zap.Error(err))
		p.metrics.IncPipelineRun("config_error")
		return domain.RunSummary{
			Success: false,
			Errors:  []string{fmt.Sprintf("failed to read reminder settings: %v", err)},
		}
	}
	if err := setting.Validate(); err != nil {
		logger.Error("reminder settings invalid", zap.Error(err))
		p.metrics.IncPipelineRun("config_error")
		return domain.RunSummary{
			Success: false,
			Errors:  []string{fmt.Sprintf("reminder settings invalid: %v", err)},
		}
	}

	if !setting.Enabled {
		logger.Info("reminders disabled, skipping tick")
		p.metrics.IncPipelineRun("disabled")
		return domain.RunSummary{Success: true}
	}

	if expired, err := p.log.ExpireStaleClaims(ctx, now.Add(-p.claimTTL)); err != nil {
		logger.Error("failed to expire stale claims", zap.Error(err))
	} else if expired > 0 {
		logger.Warn("released stale pending claims", zap.Int64("count", expired))
	}

	window := NewWindow(now, setting.LeadTime(), p.tickInterval)
	candidates, err := p.events.ListStartingBetween(ctx, window.From, window.To, p.selectLimit)
	if err != nil {
		logger.Error("window query failed", zap.Error(err))
		p.metrics.IncPipelineRun("query_error")
		return domain.RunSummary{
			Success: false,
			Errors:  []string{fmt.Sprintf("window query failed: %v", err)},
		}
	}
	p.metrics.ObserveWindowCandidates(len(candidates))

	logger.Info("tick window selected",
		zap.Time("from", window.From),
		zap.Time("to", window.To),
		zap.Int("candidates", len(candidates)),
	)

	summary := domain.RunSummary{Success: true}
	for i := range candidates {
		event := candidates[i]
		sent, skipped, err := p.processEvent(ctx, logger, event, now)
		if sent {
			summary.Scheduled++
		}
		if skipped {
			summary.Skipped++
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("event %s: %v", event.ID, err))
		}
	}

	p.metrics.IncPipelineRun("ok")
	logger.Info("tick completed",
		zap.Int("scheduled", summary.Scheduled),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
	)

	return summary
}

func (p *Pipeline) processEvent(
	ctx context.Context,
	logger *zap.Logger,
	event domain.CalendarEvent,
	now time.Time,
) (sent bool, skipped bool, err error) {
	reminded, err := p.log.HasLiveEntry(ctx, event.ID)
	if err != nil {
		return false, false, fmt.Errorf("dedup check failed: %w", err)
	}
	if reminded {
		logger.Debug("already reminded, skipping", zap.String("eventId", event.ID))
		p.metrics.IncReminderSkipped(skipReasonAlreadyReminded)
		return false, true, nil
	}

	tutor, err := p.tutors.GetByID(ctx, event.TutorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.metrics.IncReminderFailed(failReasonTutorMissing)
			return false, false, fmt.Errorf("tutor %s not found", event.TutorID)
		}
		return false, false, fmt.Errorf("tutor lookup failed: %w", err)
	}

	entry := &domain.NotificationLogEntry{
		ID:             uuid.NewString(),
		EventID:        event.ID,
		RecipientEmail: tutor.Email,
		Status:         domain.StatusPending,
		CreatedAt:      now,
	}
	if err := p.log.Claim(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Another invocation claimed the event between our dedup read and
			// this insert. The database picked the winner; step aside.
			logger.Info("lost claim race, skipping", zap.String("eventId", event.ID))
			p.metrics.IncReminderSkipped(skipReasonLostRace)
			return false, true, nil
		}
		return false, false, fmt.Errorf("claim failed: %w", err)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, mailRateScope); err != nil {
			p.failEntry(ctx, logger, entry.ID, fmt.Sprintf("rate limiter wait failed: %v", err))
			p.metrics.IncReminderFailed(failReasonSendError)
			return false, false, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	msg := mailer.RenderLessonReminder(event, *tutor)

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()

	sendStart := p.now()
	resp, sendErr := p.mail.Send(sendCtx, msg)
	p.metrics.ObserveSendDuration(p.now().Sub(sendStart))

	if sendErr != nil {
		p.failEntry(ctx, logger, entry.ID, sendErr.Error())
		p.metrics.IncReminderFailed(failReasonSendError)
		return false, false, fmt.Errorf("send failed: %w", sendErr)
	}

	providerMessageID := ""
	if resp != nil {
		providerMessageID = resp.MessageID
	}
	if err := p.log.MarkSent(ctx, entry.ID, p.now().UTC(), providerMessageID); err != nil {
		// The email went out; only the bookkeeping failed. Surface it, the
		// claim TTL will eventually release the stuck Pending entry.
		logger.Error("failed to mark reminder sent",
			zap.String("eventId", event.ID),
			zap.String("logEntryId", entry.ID),
			zap.Error(err),
		)
		p.metrics.IncReminderSent()
		return true, false, fmt.Errorf("sent but failed to record: %w", err)
	}

	logger.Info("reminder sent",
		zap.String("eventId", event.ID),
		zap.String("recipient", tutor.Email),
		zap.String("providerMessageId", providerMessageID),
	)
	p.metrics.IncReminderSent()
	return true, false, nil
}

func (p *Pipeline) failEntry(ctx context.Context, logger *zap.Logger, entryID string, message string) {
	if err := p.log.MarkFailed(ctx, entryID, message); err != nil {
		logger.Error("failed to mark reminder failed",
			zap.String("logEntryId", entryID),
			zap.Error(err),
		)
	}
}
