package service

import (
	"context"
	"time"

	"github.com/linguaflow/reminder-engine/internal/domain"
	"go.uber.org/zap"
)

// Runner is one pipeline tick. Satisfied by *Pipeline.
type Runner interface {
	Run(ctx context.Context) domain.RunSummary
}

// Ticker drives the pipeline on a fixed cadence for deployments without an
// external cron caller. Each tick is an independent invocation; the ticker
// keeps no state between them, so it can overlap freely with manual runs
// triggered over HTTP.
type Ticker struct {
	pipeline Runner
	interval time.Duration
	logger   *zap.Logger
}

func NewTicker(pipeline Runner, interval time.Duration, logger *zap.Logger) (*Ticker, error) {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ticker{
		pipeline: pipeline,
		interval: interval,
		logger:   logger,
	}, nil
}

func (t *Ticker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run immediately so a restart does not wait a full interval.
	t.runOnce(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.runOnce(ctx)
		}
	}
}

func (t *Ticker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	summary := t.pipeline.Run(ctx)
	if !summary.Success {
		t.logger.Error("scheduled tick failed", zap.Strings("errors", summary.Errors))
		return
	}
	if len(summary.Errors) > 0 {
		t.logger.Warn("scheduled tick completed with errors",
			zap.Int("scheduled", summary.Scheduled),
			zap.Strings("errors", summary.Errors),
		)
	}
}
