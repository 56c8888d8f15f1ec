// Package plans реализует каталог тарифных планов с необязательным кешем в Redis.
package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const cacheKey = "plans:all"

// Repository источник каталога планов.
type Repository interface {
	ListPlans(ctx context.Context) ([]models.PlanRow, error)
}

// Cache кеш каталога. nil отключает кеширование.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service каталог планов.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewService создаёт каталог. cache может быть nil.
func NewService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log}
}

// ListPlans возвращает планы по возрастанию цены.
//
// Ошибки кеша не прерывают запрос: каталог читается из БД.
// Если список фич плана не разбирается, план отдаётся с пустым списком.
func (s *Service) ListPlans(ctx context.Context) ([]models.Plan, error) {
	const op = "services.plans.ListPlans"
	log := s.log.With(sl.Op(op))

	if s.cache != nil {
		var cached []models.Plan
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			log.Warn("plans cache read failed", sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	rows, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plans := make([]models.Plan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, models.Plan{
			PlanID:       row.PlanID,
			Name:         row.Name,
			Price:        row.Price,
			Features:     ParseFeatures(log, row.PlanID, row.Features),
			DurationDays: row.DurationDays,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, plans, s.ttl); err != nil {
			log.Warn("plans cache write failed", sl.Err(err))
		}
	}
	return plans, nil
}

// ParseFeatures разбирает JSON-массив фич. При ошибке пишет предупреждение
// и возвращает пустой список, а не nil, чтобы в ответе был [].
func ParseFeatures(log *slog.Logger, planID string, raw []byte) []string {
	features := []string{}
	if len(raw) == 0 {
		return features
	}
	if err := json.Unmarshal(raw, &features); err != nil || features == nil {
		log.Warn("failed to parse plan features", slog.String("plan_id", planID), sl.Err(err))
		return []string{}
	}
	return features
}
