package subscriptionmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-manager/internal/cache"
	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/metrics"
	"github.com/magabrotheeeer/subscription-manager/internal/migrations"
	"github.com/magabrotheeeer/subscription-manager/internal/services/admin"
	"github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	"github.com/magabrotheeeer/subscription-manager/internal/services/plans"
	"github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение сервиса подписок.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	publisher *rabbitmq.Publisher
}

// New подключает хранилище, накатывает миграции и собирает маршруты.
// Redis и RabbitMQ необязательны: при пустой настройке или ошибке
// подключения сервис работает без них.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.subscriptionmanager.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString, storage.Options{
		MaxConns:     cfg.MaxConns,
		QueryTimeout: cfg.QueryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB := db.SQLDB()
	err = migrations.Run(sqlDB, cfg.MigrationsPath)
	_ = sqlDB.Close()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var plansCache plans.Cache
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, plans cache disabled", sl.Err(err))
		} else {
			app.cache = c
			plansCache = c
		}
	}

	subOpts := []subscription.Option{
		subscription.WithMetrics(m),
		subscription.WithLocation(cfg.Location()),
	}
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			logger.Warn("rabbitmq unavailable, subscription events disabled", sl.Err(err))
		} else {
			app.publisher = p
			subOpts = append(subOpts, subscription.WithPublisher(p))
		}
	}

	accessMaker := jwt.NewJWTMaker(cfg.AccessSecretKey, cfg.AccessTokenTTL)
	refreshMaker := jwt.NewJWTMaker(cfg.RefreshSecretKey, cfg.RefreshTokenTTL)

	authService := auth.NewAuthService(db, accessMaker, refreshMaker, cfg.AdminRegistrationKey, auth.WithMetrics(m))
	plansService := plans.NewService(db, plansCache, cfg.PlansTTL, logger)
	subscriptionService := subscription.NewService(db, logger, subOpts...)
	adminService := admin.NewService(db, cfg.AdminMaxPageSize)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:           authService,
		Plans:          plansService,
		Subscriptions:  subscriptionService,
		Admin:          adminService,
		DB:             db,
		Metrics:        m,
		Gatherer:       reg,
		Limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		AllowedOrigins: cfg.AllowedOrigins,
		ExposeErrors:   cfg.ExposeErrors(),
	})

	app.server = &http.Server{
		Addr:              cfg.AddressHTTP,
		Handler:           router,
		ReadTimeout:       cfg.TimeoutHTTP,
		ReadHeaderTimeout: cfg.TimeoutHTTP,
		WriteTimeout:      cfg.TimeoutHTTP,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер
// и освобождает ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis client", sl.Err(err))
		}
	}
	a.db.Close()
}
