package middlewarectx

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
)

// RateLimitMiddleware ограничивает частоту запросов общим limiter.
// Используется для эндпоинтов аутентификации.
func RateLimitMiddleware(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "1")
				response.JSON(w, r, http.StatusTooManyRequests, response.Error(r, "Too many requests", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
