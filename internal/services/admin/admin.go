// Package admin реализует постраничный просмотр всех подписок для администраторов.
// Авторизация здесь не выполняется: роль проверяет Auth Gate.
package admin

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Значения пагинации по умолчанию.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// StatusAll отключает фильтр по статусу.
const StatusAll = "all"

var ErrInvalidStatus = errors.New("invalid status filter")

// Repository выборка подписок с данными пользователей и планов.
type Repository interface {
	ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.AdminSubscription, error)
	CountSubscriptions(ctx context.Context, status string) (int, error)
}

// Service слой админских запросов.
type Service struct {
	repo        Repository
	maxPageSize int
}

// NewService создаёт сервис. maxPageSize <= 0 означает MaxPageSize.
func NewService(repo Repository, maxPageSize int) *Service {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	return &Service{repo: repo, maxPageSize: maxPageSize}
}

// ListAllSubscriptions возвращает страницу подписок, новые первыми.
//
// Неположительные page и pageSize заменяются значениями по умолчанию,
// pageSize ограничен сверху. Пустой статус и "all" означают все статусы.
func (s *Service) ListAllSubscriptions(ctx context.Context, page, pageSize int, status string) (*models.SubscriptionPage, error) {
	const op = "services.admin.ListAllSubscriptions"

	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	// смещение (page-1)*pageSize не должно переполнять int
	if maxPage := math.MaxInt / pageSize; page > maxPage {
		page = maxPage
	}
	if status == StatusAll {
		status = ""
	}
	if status != "" && !models.ValidStatus(status) {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidStatus, status)
	}

	items, err := s.repo.ListSubscriptions(ctx, models.SubscriptionFilter{
		Status: status,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.repo.CountSubscriptions(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []models.AdminSubscription{}
	}

	return &models.SubscriptionPage{
		Subscriptions: items,
		Pagination: models.Pagination{
			Current:      page,
			Total:        (total + pageSize - 1) / pageSize,
			PageSize:     pageSize,
			TotalRecords: total,
		},
	}, nil
}
