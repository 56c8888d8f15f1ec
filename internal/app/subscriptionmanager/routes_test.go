package subscriptionmanager

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-manager/internal/metrics"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter собирает маршруты без бэкендов: проверяются только ответы,
// не доходящие до сервисов.
func newTestRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, newNoopLogger(), d)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got
}

func TestRoutes_UnknownRoute(t *testing.T) {
	h := newTestRouter(Deps{})

	for _, path := range []string{"/nope", "/api/nope", "/api/admin/other"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		got := decodeBody(t, rec)
		assert.Equal(t, false, got["success"])
		assert.Equal(t, "Route not found", got["message"])
	}
}

func TestRoutes_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(Deps{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, true, got["success"])
	assert.NotEmpty(t, got["timestamp"])
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	h := newTestRouter(Deps{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/subscribe/6b0d1a9e-0000-0000-0000-000000000000"},
		{http.MethodGet, "/api/my-subscription"},
		{http.MethodGet, "/api/admin/subscriptions"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Access token required", decodeBody(t, rec)["message"])
		})
	}
}

func TestRoutes_AuthRateLimited(t *testing.T) {
	h := newTestRouter(Deps{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})

	// первый запрос проходит лимитер и падает на валидации
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// проверка доступности лимитом не ограничена
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newTestRouter(Deps{Metrics: metrics.New(reg), Gatherer: reg})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{code="200",method="GET",route="/api/health"} 1`)
}
