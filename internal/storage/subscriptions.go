package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const subscriptionColumns = `subscription_id, user_id, plan_id, start_date, end_date, status, created_at, updated_at`

// CreateSubscription в одной транзакции переводит просроченные активные подписки
// пользователя в expired и вставляет новую активную подписку.
//
// Единственность активной подписки гарантирует частичный индекс
// unique_active_subscription: его нарушение возвращается как ErrActiveSubscriptionExists.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `UPDATE subscriptions
			  SET status = 'expired', updated_at = NOW()
			  WHERE user_id = $1 AND status = 'active' AND end_date <= $2`,
		sub.UserID, sub.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: expire overdue: %w", op, err)
	}

	query := `INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(tx.QueryRow(ctx, query,
		sub.UserID, sub.PlanID, sub.StartDate, sub.EndDate, models.StatusActive))
	if err != nil {
		if uniqueViolation(err, activeSubscriptionIndex) {
			return nil, fmt.Errorf("%s: %w", op, ErrActiveSubscriptionExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if uniqueViolation(err, activeSubscriptionIndex) {
			return nil, fmt.Errorf("%s: %w", op, ErrActiveSubscriptionExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// HasActiveSubscription быстрая проверка перед вставкой. Не является блокировкой.
func (s *Storage) HasActiveSubscription(ctx context.Context, userID string, now time.Time) (bool, error) {
	const op = "storage.HasActiveSubscription"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (
			  SELECT 1 FROM subscriptions
			  WHERE user_id = $1 AND status = 'active' AND end_date > $2)`,
		userID, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// GetActiveSubscription возвращает действующую подписку пользователя вместе с данными плана.
// Подписка с истёкшим end_date не считается активной, даже если статус ещё не обновлён.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID string, now time.Time) (*models.ActiveSubscriptionRow, error) {
	const op = "storage.GetActiveSubscription"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	query := `SELECT s.subscription_id, s.user_id, s.plan_id, s.start_date, s.end_date, s.status,
				s.created_at, s.updated_at,
				p.name, p.price::text, p.features::text, p.duration_days
			  FROM subscriptions s
			  JOIN plans p ON p.plan_id = s.plan_id
			  WHERE s.user_id = $1 AND s.status = 'active' AND s.end_date > $2
			  ORDER BY s.created_at DESC
			  LIMIT 1`
	var (
		r        models.ActiveSubscriptionRow
		price    string
		features string
	)
	err := s.Pool.QueryRow(ctx, query, userID, now).Scan(
		&r.SubscriptionID, &r.UserID, &r.PlanID, &r.StartDate, &r.EndDate, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
		&r.PlanName, &price, &features, &r.DurationDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if r.PlanPrice, err = models.NewMoney(price); err != nil {
		return nil, fmt.Errorf("%s: parse price: %w", op, err)
	}
	r.PlanFeatures = []byte(features)
	return &r, nil
}

// ExpireOverdue переводит все активные подписки с end_date <= now в expired
// и возвращает изменённые строки.
func (s *Storage) ExpireOverdue(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	const op = "storage.ExpireOverdue"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `UPDATE subscriptions
			  SET status = 'expired', updated_at = NOW()
			  WHERE status = 'active' AND end_date <= $1
			  RETURNING `+subscriptionColumns, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListSubscriptions возвращает страницу подписок всех пользователей,
// новые первыми. Пустой статус означает отсутствие фильтра.
func (s *Storage) ListSubscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.AdminSubscription, error) {
	const op = "storage.ListSubscriptions"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT s.subscription_id, s.user_id, s.plan_id, s.start_date, s.end_date, s.status,
				s.created_at, s.updated_at,
				u.name, u.email, p.name, p.price::text
			  FROM subscriptions s
			  JOIN users u ON u.user_id = s.user_id
			  JOIN plans p ON p.plan_id = s.plan_id
			  WHERE ($1 = '' OR s.status = $1)
			  ORDER BY s.created_at DESC, s.subscription_id
			  LIMIT $2 OFFSET $3`
	rows, err := s.Pool.Query(ctx, query, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.AdminSubscription, 0, filter.Limit)
	for rows.Next() {
		var (
			a     models.AdminSubscription
			price string
		)
		if err := rows.Scan(
			&a.SubscriptionID, &a.UserID, &a.PlanID, &a.StartDate, &a.EndDate, &a.Status,
			&a.CreatedAt, &a.UpdatedAt,
			&a.UserName, &a.UserEmail, &a.PlanName, &price,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if a.PlanPrice, err = models.NewMoney(price); err != nil {
			return nil, fmt.Errorf("%s: parse price: %w", op, err)
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// CountSubscriptions считает подписки под тем же фильтром, что и ListSubscriptions.
func (s *Storage) CountSubscriptions(ctx context.Context, status string) (int, error) {
	const op = "storage.CountSubscriptions"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var total int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.SubscriptionID, &sub.UserID, &sub.PlanID, &sub.StartDate, &sub.EndDate,
		&sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
