// Package subscribe реализует оформление подписки на план.
package subscribe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// Service описывает оформление подписки.
type Service interface {
	Subscribe(ctx context.Context, userID, planID string) (*models.SubscriptionDetails, error)
}

// Handler обрабатывает запросы оформления подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Оформить подписку
// @Tags Subscriptions
// @Produce  json
// @Param planId path string true "ID плана"
// @Success 201 {object} response.Response "subscription"
// @Failure 400 {object} response.ErrorResponse "Уже есть активная подписка"
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /subscribe/{planId} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.subscribe"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.JSON(w, r, http.StatusUnauthorized, response.Error(r, "Access token required", nil))
		return
	}
	planID := chi.URLParam(r, "planId")

	details, err := h.service.Subscribe(r.Context(), identity.UserID, planID)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrPlanNotFound):
			log.Info("plan not found", slog.String("plan_id", planID))
			response.JSON(w, r, http.StatusNotFound, response.Error(r, "Plan not found", nil))
		case errors.Is(err, subscription.ErrAlreadySubscribed):
			log.Info("user already subscribed", slog.String("user_id", identity.UserID))
			response.JSON(w, r, http.StatusBadRequest, response.Error(r, "You already have an active subscription", nil))
		default:
			log.Error("subscribe failed", sl.Err(err))
			response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error while creating subscription", err))
		}
		return
	}

	log.Info("subscription created",
		slog.String("subscription_id", details.SubscriptionID),
		slog.String("user_id", identity.UserID),
		slog.String("plan_id", planID),
	)
	response.JSON(w, r, http.StatusCreated, response.OK("Subscription created successfully", map[string]any{
		"subscription": details,
	}))
}
