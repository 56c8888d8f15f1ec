// Package health реализует проверку доступности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response ответ проверки доступности.
type Response struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler отвечает на проверку доступности. При заданном Pinger
// недоступность БД возвращает 503.
type Handler struct {
	log *slog.Logger
	db  Pinger
	now func() time.Time
}

// New создает новый экземпляр Handler. db может быть nil.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db, now: time.Now}
}

// ServeHTTP godoc
// @Summary Проверка доступности
// @Tags Health
// @Produce  json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("health check: database unavailable", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, Response{Message: "Database unavailable", Timestamp: h.now().UTC()})
			return
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, Response{Success: true, Message: "Server is running", Timestamp: h.now().UTC()})
}
