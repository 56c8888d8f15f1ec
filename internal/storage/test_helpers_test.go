package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-manager/internal/migrations"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и накатывает миграции проекта
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test requires docker")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := New(ctx, dsn, Options{MaxConns: 10, QueryTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	db := st.SQLDB()
	require.NoError(t, migrations.Run(db, filepath.Join(root, "migrations")))

	return st
}

// testDataFactory создаёт тестовые данные напрямую через пул
type testDataFactory struct {
	st *Storage
}

func (f testDataFactory) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.st.CreateUser(context.Background(), models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$12$hash",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func (f testDataFactory) planByName(t *testing.T, name string) models.PlanRow {
	t.Helper()
	plans, err := f.st.ListPlans(context.Background())
	require.NoError(t, err)
	for _, p := range plans {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("plan %q not seeded", name)
	return models.PlanRow{}
}

// subscription вставляет подписку с произвольным статусом и датой создания
func (f testDataFactory) subscription(t *testing.T, userID, planID, status string, start, end, createdAt time.Time) string {
	t.Helper()
	var id string
	err := f.st.Pool.QueryRow(context.Background(),
		`INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING subscription_id`,
		userID, planID, start, end, status, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f testDataFactory) countActive(t *testing.T, userID string) int {
	t.Helper()
	var n int
	err := f.st.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1 AND status = 'active'`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}

// refreshTokens возвращает сохранённые refresh-токены пользователя
func (f testDataFactory) refreshTokens(t *testing.T, userID string) []string {
	t.Helper()
	rows, err := f.st.Pool.Query(context.Background(),
		`SELECT token FROM refresh_tokens WHERE user_id = $1 ORDER BY created_at`, userID)
	require.NoError(t, err)
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	return tokens
}
