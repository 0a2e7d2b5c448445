package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aerozone/backend/internal/config"
	"github.com/aerozone/backend/internal/logger"
	"github.com/aerozone/backend/internal/models"
	"github.com/aerozone/backend/internal/services"
	"github.com/aerozone/backend/internal/stores"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	zlog, err := logger.Init(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		zlog.Fatalw("failed to initialize database", "error", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		zlog.Fatalw("failed to run migrations", "error", err)
	}

	// Initialize Redis (poll lease)
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize stores
	scheduleStore := stores.NewGormScheduleStore(db)
	executionStore := stores.NewGormExecutionStore(db)
	entityReaders := stores.NewGormEntityReaders(db)

	// Initialize services
	emailService := services.NewEmailService(cfg, zlog)
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		zlog.Fatalw("failed to init S3 service", "error", err)
	}
	exportService := services.NewExportService(entityReaders, cfg.AppVersion, zlog)
	archiveService := services.NewArchiveService(zlog)
	deliveryService := services.NewDeliveryService(emailService, s3Service, zlog)
	backupService := services.NewBackupService(
		scheduleStore, executionStore, exportService, archiveService, deliveryService, zlog)

	pollLock := services.NewPollLock(redisClient, cfg.PollLockKey, cfg.PollLockTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Poll for due schedules on the configured cron spec. The redis lease
	// keeps concurrent runner instances from double-triggering a schedule.
	c := cron.New()
	_, err = c.AddFunc(cfg.PollSpec, func() {
		acquired, err := pollLock.Acquire(ctx)
		if err != nil {
			zlog.Errorw("poll lease acquisition failed", "error", err)
			return
		}
		if !acquired {
			zlog.Debugw("poll lease held elsewhere, skipping cycle")
			return
		}
		defer func() {
			if err := pollLock.Release(ctx); err != nil {
				zlog.Warnw("poll lease release failed", "error", err)
			}
		}()

		executions := backupService.RunDue(ctx)
		if len(executions) > 0 {
			zlog.Infow("poll cycle finished", "executions", len(executions))
		}
	})
	if err != nil {
		zlog.Fatalw("invalid poll spec", "spec", cfg.PollSpec, "error", err)
	}

	c.Start()
	zlog.Infow("backup runner started", "poll_spec", cfg.PollSpec)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down backup runner")
	cancel()
	<-c.Stop().Done()
	zlog.Infow("backup runner exited")
}
