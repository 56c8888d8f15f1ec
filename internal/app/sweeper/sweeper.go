// Package sweeper собирает фоновый процесс, переводящий просроченные подписки в expired.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/subscription-manager/internal/services/scheduler"
	"github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

const (
	dbRetries    = 10
	dbRetryDelay = 3 * time.Second
)

// App представляет приложение фонового перевода подписок.
type App struct {
	scheduler *schedulerservice.SchedulerService
	db        *storage.Storage
	publisher *rabbitmq.Publisher
	logger    *slog.Logger
}

// waitForDB ждёт готовности базы: sweeper может стартовать раньше PostgreSQL.
func waitForDB(ctx context.Context, cfg *config.Config) (*storage.Storage, error) {
	var lastErr error
	for range dbRetries {
		db, err := storage.New(ctx, cfg.StorageConnectionString, storage.Options{
			MaxConns:     2,
			QueryTimeout: cfg.QueryTimeout,
		})
		if err == nil {
			return db, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return nil, fmt.Errorf("database not ready after retries: %w", lastErr)
}

// New создает новый экземпляр приложения. Схема БД должна быть уже накачена
// основным сервисом.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := waitForDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{db: db, logger: logger}

	opts := []subscription.Option{
		subscription.WithLocation(cfg.Location()),
	}
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			logger.Warn("rabbitmq unavailable, expiry events disabled", sl.Err(err))
		} else {
			app.publisher = p
			opts = append(opts, subscription.WithPublisher(p))
		}
	}

	subscriptionService := subscription.NewService(db, logger, opts...)
	app.scheduler = schedulerservice.NewSchedulerService(subscriptionService, cfg.Interval, logger)
	return app, nil
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Run(ctx)

	a.logger.Info("shutting down expiry sweeper")
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
	a.db.Close()
	return nil
}
