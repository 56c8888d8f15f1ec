// Package subscription реализует движок подписок: оформление, поиск активной
// подписки и перевод просроченных подписок в expired.
//
// Правило "не более одной активной подписки на пользователя" обеспечивает
// частичный уникальный индекс в БД. Проверка перед вставкой лишь экономит запрос.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/metrics"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/plans"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrAlreadySubscribed = errors.New("user already has an active subscription")
)

// Repository операции хранилища, нужные движку подписок.
type Repository interface {
	GetPlan(ctx context.Context, planID string) (*models.PlanRow, error)
	HasActiveSubscription(ctx context.Context, userID string, now time.Time) (bool, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID string, now time.Time) (*models.ActiveSubscriptionRow, error)
	ExpireOverdue(ctx context.Context, now time.Time) ([]models.Subscription, error)
}

// Publisher отправляет события подписок брокеру.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Service движок подписок.
type Service struct {
	repo      Repository
	publisher Publisher
	metrics   *metrics.Metrics
	loc       *time.Location
	now       func() time.Time
	log       *slog.Logger
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher включает публикацию событий.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics включает счётчики подписок.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocation задаёт часовой пояс календарной арифметики дат.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создаёт движок подписок.
func NewService(repo Repository, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		loc:  time.UTC,
		now:  time.Now,
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe оформляет подписку userID на план planID.
//
// Дата окончания считается в календарных днях в настроенном часовом поясе,
// поэтому переход на летнее время не сдвигает время окончания.
func (s *Service) Subscribe(ctx context.Context, userID, planID string) (*models.SubscriptionDetails, error) {
	const op = "services.subscription.Subscribe"
	log := s.log.With(sl.Op(op), slog.String("user_id", userID), slog.String("plan_id", planID))

	if _, err := uuid.Parse(planID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := s.now().In(s.loc)

	active, err := s.repo.HasActiveSubscription(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if active {
		s.conflict()
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	}

	created, err := s.repo.CreateSubscription(ctx, models.Subscription{
		UserID:    userID,
		PlanID:    plan.PlanID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, plan.DurationDays),
		Status:    models.StatusActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrActiveSubscriptionExists) {
			s.conflict()
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.metrics != nil {
		s.metrics.SubscriptionsCreated.WithLabelValues(plan.Name).Inc()
	}
	s.publish(ctx, log, rabbitmq.RoutingKeyCreated, *created)
	log.Info("subscription created", slog.String("subscription_id", created.SubscriptionID))

	return &models.SubscriptionDetails{
		Subscription: *created,
		PlanName:     plan.Name,
		PlanPrice:    plan.Price,
		PlanFeatures: plans.ParseFeatures(log, plan.PlanID, plan.Features),
		DurationDays: plan.DurationDays,
	}, nil
}

// GetActiveSubscription возвращает действующую подписку пользователя с данными плана.
// Отсутствие подписки не ошибка: возвращается (nil, nil).
func (s *Service) GetActiveSubscription(ctx context.Context, userID string) (*models.SubscriptionDetails, error) {
	const op = "services.subscription.GetActiveSubscription"

	row, err := s.repo.GetActiveSubscription(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.SubscriptionDetails{
		Subscription: row.Subscription,
		PlanName:     row.PlanName,
		PlanPrice:    row.PlanPrice,
		PlanFeatures: plans.ParseFeatures(s.log.With(sl.Op(op)), row.PlanID, row.PlanFeatures),
		DurationDays: row.DurationDays,
	}, nil
}

// ExpireOverdue переводит просроченные активные подписки в expired и публикует
// по событию на каждую. Возвращает число изменённых подписок.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	const op = "services.subscription.ExpireOverdue"
	log := s.log.With(sl.Op(op))

	expired, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, sub := range expired {
		s.publish(ctx, log, rabbitmq.RoutingKeyExpired, sub)
	}
	if s.metrics != nil {
		s.metrics.SubscriptionsExpired.Add(float64(len(expired)))
	}
	return len(expired), nil
}

// publish не прерывает операцию: подписка уже сохранена, событие теряется с записью в лог.
func (s *Service) publish(ctx context.Context, log *slog.Logger, routingKey string, sub models.Subscription) {
	if s.publisher == nil {
		return
	}
	event := models.SubscriptionEvent{
		SubscriptionID: sub.SubscriptionID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		Status:         sub.Status,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Error("failed to publish subscription event",
			slog.String("routing_key", routingKey),
			slog.String("subscription_id", sub.SubscriptionID),
			sl.Err(err))
	}
}

func (s *Service) conflict() {
	if s.metrics != nil {
		s.metrics.SubscriptionConflicts.Inc()
	}
}
