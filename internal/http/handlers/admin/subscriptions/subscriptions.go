// Package subscriptions реализует админский постраничный список подписок.
package subscriptions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/admin"
)

// Service описывает админскую выборку подписок.
type Service interface {
	ListAllSubscriptions(ctx context.Context, page, pageSize int, status string) (*models.SubscriptionPage, error)
}

// Handler обрабатывает запросы админского списка.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Все подписки (админ)
// @Tags Admin
// @Produce  json
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param status query string false "active, expired, cancelled или all"
// @Success 200 {object} response.Response{data=models.SubscriptionPage}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /admin/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscriptions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	// нечисловые значения заменяются значениями по умолчанию в сервисе
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := q.Get("status")

	result, err := h.service.ListAllSubscriptions(r.Context(), page, limit, status)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidStatus) {
			response.JSON(w, r, http.StatusBadRequest, response.Error(r, "Invalid status filter", nil))
			return
		}
		log.Error("failed to list subscriptions", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error while fetching subscriptions", err))
		return
	}

	log.Debug("subscriptions listed",
		slog.Int("page", result.Pagination.Current),
		slog.Int("total_records", result.Pagination.TotalRecords),
	)
	response.JSON(w, r, http.StatusOK, response.OK("", result))
}
