// Package list реализует публичный просмотр каталога планов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает чтение каталога.
type Service interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
}

// Handler обрабатывает запросы каталога планов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тарифных планов
// @Description Планы отсортированы по возрастанию цены
// @Tags Plans
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Plan}
// @Failure 500 {object} response.ErrorResponse
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error while fetching plans", err))
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}

	response.JSON(w, r, http.StatusOK, response.OK("", plans))
}
