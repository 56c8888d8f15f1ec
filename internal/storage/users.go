package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его без хеша пароля.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO users (name, email, password, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING user_id, name, email, role, created_at, updated_at`
	var u models.User
	err := s.Pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Role).
		Scan(&u.UserID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if uniqueViolation(err, usersEmailConstraint) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// GetUserByEmail возвращает пользователя вместе с хешем пароля.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT user_id, name, email, password, role, created_at, updated_at
			  FROM users
			  WHERE email = $1`
	var u models.User
	err := s.Pool.QueryRow(ctx, query, email).
		Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// EmailExists проверяет, занят ли email.
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// GetIdentity возвращает id, имя, email и роль пользователя. Хеш пароля не читается.
func (s *Storage) GetIdentity(ctx context.Context, userID string) (*models.Identity, error) {
	const op = "storage.GetIdentity"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	query := `SELECT user_id, name, email, role FROM users WHERE user_id = $1`
	var id models.Identity
	err := s.Pool.QueryRow(ctx, query, userID).Scan(&id.UserID, &id.Name, &id.Email, &id.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &id, nil
}
