package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/linguaflow/reminder-engine/internal/config"
	"github.com/linguaflow/reminder-engine/internal/handler"
	"github.com/linguaflow/reminder-engine/internal/infra/postgresql"
	"github.com/linguaflow/reminder-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/linguaflow/reminder-engine/internal/infra/redis"
	"github.com/linguaflow/reminder-engine/internal/mailer"
	"github.com/linguaflow/reminder-engine/internal/observability"
	"github.com/linguaflow/reminder-engine/internal/repository"
	"github.com/linguaflow/reminder-engine/internal/service"
	"github.com/linguaflow/reminder-engine/internal/transport"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.MailRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	mail, err := mailer.NewResendMailer(cfg.ResendAPIURL, cfg.ResendAPIKey, cfg.MailFrom)
	if err != nil {
		logger.Fatal("mailer initialization failed", zap.Error(err))
	}

	settingsRepo := repository.NewGormSettingsRepo(db)
	eventRepo := repository.NewGormEventRepo(db)
	tutorRepo := repository.NewGormTutorRepo(db)
	logRepo := repository.NewGormNotificationLogRepo(db)

	pipeline, err := service.NewPipeline(
		settingsRepo,
		eventRepo,
		tutorRepo,
		logRepo,
		mail,
		limiter,
		service.PipelineOptions{
			TickInterval: cfg.TickInterval(),
			ClaimTTL:     cfg.ClaimTTL(),
			SendTimeout:  cfg.SendTimeout(),
			SelectLimit:  cfg.WindowSelectLimit,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("pipeline initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	pipeline.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterReminderRoutes(app, pipeline, logRepo, settingsRepo); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tickerDone := make(chan struct{})
	if cfg.RunTicker {
		ticker, err := service.NewTicker(pipeline, cfg.TickInterval(), logger)
		if err != nil {
			logger.Fatal("ticker initialization failed", zap.Error(err))
		}
		go func() {
			defer close(tickerDone)
			if err := ticker.Start(ctx); err != nil {
				logger.Error("ticker stopped", zap.Error(err))
			}
		}()
	} else {
		close(tickerDone)
		logger.Info("internal ticker disabled, expecting external trigger")
	}

	go func() {
		logger.Info("reminder-engine api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	select {
	case <-tickerDone:
	case <-time.After(shutdownTimeout):
		logger.Warn("ticker did not stop before timeout")
	}

	logger.Info("reminder-engine stopped")
}
