// Package logout реализует отзыв refresh-токенов текущего пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// Service описывает выход пользователя.
type Service interface {
	Logout(ctx context.Context, userID string) error
}

// Handler обрабатывает запросы выхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.JSON(w, r, http.StatusUnauthorized, response.Error(r, "Access token required", nil))
		return
	}

	if err := h.service.Logout(r.Context(), identity.UserID); err != nil {
		log.Error("logout failed", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error during logout", err))
		return
	}

	log.Info("user logged out", slog.String("user_id", identity.UserID))
	response.JSON(w, r, http.StatusOK, response.OK("Logged out successfully", nil))
}
