package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ReplaceRefreshToken удаляет все refresh-токены пользователя и сохраняет новый
// в одной транзакции. Две одновременные авторизации гоняются, побеждает последняя.
func (s *Storage) ReplaceRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const op = "storage.ReplaceRefreshToken"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
			userID, token, expiresAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RotateRefreshToken атомарно заменяет предъявленный токен новым.
//
// Если предъявленного токена нет в таблице (уже ротирован, отозван выходом
// или вытеснен новым входом) или он истёк, возвращает ErrNotFound и ничего не меняет.
func (s *Storage) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt, now time.Time) error {
	const op = "storage.RotateRefreshToken"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2 AND expires_at > $3`,
			userID, oldToken, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
			userID, newToken, expiresAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteRefreshTokens удаляет все refresh-токены пользователя и возвращает их количество.
func (s *Storage) DeleteRefreshTokens(ctx context.Context, userID string) (int64, error) {
	const op = "storage.DeleteRefreshTokens"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}
