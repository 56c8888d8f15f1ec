// Package subscriptionmanager собирает HTTP-приложение сервиса подписок.
package subscriptionmanager

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/admin/subscriptions"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/my"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/metrics"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/admin"
	"github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	"github.com/magabrotheeeer/subscription-manager/internal/services/plans"
	"github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// Deps зависимости маршрутов. Metrics, Limiter и DB необязательны.
type Deps struct {
	Auth           *auth.AuthService
	Plans          *plans.Service
	Subscriptions  *subscription.Service
	Admin          *admin.Service
	DB             health.Pinger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Limiter        *rate.Limiter
	AllowedOrigins []string
	ExposeErrors   bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}),
		response.ExposeErrors(d.ExposeErrors),
	)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.New(logger, d.DB).ServeHTTP)
		r.Get("/plans", list.New(logger, d.Plans).ServeHTTP)

		// Открытые конечные точки аутентификации
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
			}
			r.Post("/auth/register", register.New(logger, d.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, d.Auth).ServeHTTP)
			r.Post("/auth/refresh", refresh.New(logger, d.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))
			r.Post("/auth/logout", logout.New(logger, d.Auth).ServeHTTP)
			r.Post("/subscribe/{planId}", subscribe.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/my-subscription", my.New(logger, d.Subscriptions).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
				r.Get("/admin/subscriptions", subscriptions.New(logger, d.Admin).ServeHTTP)
			})
		})
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusNotFound, response.Error(r, "Route not found", nil))
	})
}
