// Package my реализует просмотр активной подписки текущего пользователя.
package my

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает чтение активной подписки. Отсутствие подписки не ошибка.
type Service interface {
	GetActiveSubscription(ctx context.Context, userID string) (*models.SubscriptionDetails, error)
}

// Handler обрабатывает запросы текущей подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Моя активная подписка
// @Description data равно null, если активной подписки нет
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /my-subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.my"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.JSON(w, r, http.StatusUnauthorized, response.Error(r, "Access token required", nil))
		return
	}

	details, err := h.service.GetActiveSubscription(r.Context(), identity.UserID)
	if err != nil {
		log.Error("failed to get active subscription", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error while fetching subscription", err))
		return
	}
	if details == nil {
		response.JSON(w, r, http.StatusOK, response.OK("No active subscription found", nil))
		return
	}

	response.JSON(w, r, http.StatusOK, response.OK("", details))
}
