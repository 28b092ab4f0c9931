package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tempohq/tempo/internal/config"
	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/logger"
	"github.com/tempohq/tempo/internal/notify"
	"github.com/tempohq/tempo/internal/queue"
	"github.com/tempohq/tempo/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.NotifierDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	if cfg.TelegramBotToken == "" {
		zapLogger.Fatal("telegram_bot_token_not_configured")
	}

	zapLogger.Info("starting_notifier",
		zap.Bool("debug_mode", debugMode),
		zap.Int("reminder_interval_minutes", cfg.ReminderInterval),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	timerRepo := database.NewTimerRepository(db)
	sender := notify.NewTelegramSender(cfg.TelegramAPIURL, cfg.TelegramBotToken)
	deliverer := workers.NewDeliverer(jobQueue, sender, cfg.RabbitMQPrefetch, zapLogger)

	scanInterval := time.Duration(cfg.ReminderInterval) * time.Minute
	if scanInterval <= 0 {
		scanInterval = notify.DefaultScanInterval
	}
	scanner := notify.NewScanner(timerRepo, jobQueue, scanInterval, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The deliverer drains the queue; the scanner refills it on a timer. If
	// either stops unexpectedly, bring the whole process down so the
	// supervisor restarts it.
	fatal := make(chan error, 2)

	go func() {
		if err := deliverer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatal <- err
			return
		}
		fatal <- nil
	}()

	go func() {
		if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatal <- err
			return
		}
		fatal <- nil
	}()

	zapLogger.Info("notifier_started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zapLogger.Info("shutdown_signal_received")
	case err := <-fatal:
		if err != nil {
			zapLogger.Error("notifier_component_failed", zap.Error(err))
		}
	}

	cancel()
	zapLogger.Info("notifier_stopped")
}

// connectQueue dials RabbitMQ with exponential backoff so the notifier
// survives broker startup ordering in compose environments.
func connectQueue(amqpURL string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	return nil, lastErr
}
