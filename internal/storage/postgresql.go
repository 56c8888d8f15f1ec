// Package storage реализует хранилище данных на основе PostgreSQL:
// пользователи, refresh-токены, каталог планов и подписки.
//
// Каждый запрос выполняется под таймаутом queryTimeout, чтобы зависшая БД
// не удерживала соединения пула бесконечно.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrUserExists пользователь с таким email уже существует.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrActiveSubscriptionExists у пользователя уже есть активная подписка
	// (нарушение индекса unique_active_subscription).
	ErrActiveSubscriptionExists = errors.New("active subscription already exists")
)

const (
	activeSubscriptionIndex = "unique_active_subscription"
	usersEmailConstraint    = "users_email_key"
)

// DefaultQueryTimeout используется, если таймаут не задан.
const DefaultQueryTimeout = 5 * time.Second

// Storage инкапсулирует пул соединений PostgreSQL.
type Storage struct {
	Pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// Options параметры пула.
type Options struct {
	MaxConns     int32
	QueryTimeout time.Duration
}

// New создаёт пул соединений и проверяет подключение.
func New(ctx context.Context, connString string, opts Options) (*Storage, error) {
	const op = "storage.New"

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithPool(pool, opts.QueryTimeout), nil
}

// NewWithPool оборачивает готовый пул.
func NewWithPool(pool *pgxpool.Pool, queryTimeout time.Duration) *Storage {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &Storage{Pool: pool, queryTimeout: queryTimeout}
}

// SQLDB возвращает *sql.DB поверх пула, нужен для golang-migrate.
func (s *Storage) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(s.Pool)
}

// Ping проверяет готовность базы данных.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// Close закрывает пул.
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
}

// validID отсекает строки, которые не могут быть первичным ключом UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
