package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const planColumns = `plan_id, name, price::text, features::text, duration_days, created_at, updated_at`

// ListPlans возвращает каталог планов по возрастанию цены.
// Список фич отдаётся как есть, разбор выполняет сервис каталога.
func (s *Storage) ListPlans(ctx context.Context) ([]models.PlanRow, error) {
	const op = "storage.ListPlans"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT `+planColumns+` FROM plans ORDER BY price ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []models.PlanRow
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetPlan возвращает план по id. Некорректный UUID трактуется как отсутствие плана.
func (s *Storage) GetPlan(ctx context.Context, planID string) (*models.PlanRow, error) {
	const op = "storage.GetPlan"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !validID(planID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	p, err := scanPlan(s.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE plan_id = $1`, planID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func scanPlan(row pgx.Row) (*models.PlanRow, error) {
	var (
		p        models.PlanRow
		price    string
		features string
	)
	if err := row.Scan(&p.PlanID, &p.Name, &price, &features, &p.DurationDays, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	money, err := models.NewMoney(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = money
	p.Features = []byte(features)
	return &p, nil
}
