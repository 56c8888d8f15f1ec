// Package metrics регистрирует счётчики Prometheus сервиса подписок.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик. Создаётся один раз на процесс для своего Registerer.
type Metrics struct {
	SubscriptionsCreated  *prometheus.CounterVec
	SubscriptionConflicts prometheus.Counter
	SubscriptionsExpired  prometheus.Counter
	AuthAttempts          *prometheus.CounterVec
	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
}

// New регистрирует метрики в reg. В тестах передаётся prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubscriptionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Number of subscriptions created, by plan name.",
		}, []string{"plan"}),
		SubscriptionConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "subscription_conflicts_total",
			Help: "Subscribe attempts rejected because an active subscription exists.",
		}),
		SubscriptionsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions transitioned to expired by the sweeper.",
		}),
		AuthAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by action and result.",
		}, []string{"action", "result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
