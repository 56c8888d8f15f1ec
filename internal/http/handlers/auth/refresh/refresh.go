// Package refresh реализует ротацию пары токенов по refresh-токену.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/auth"
)

// Request тело запроса обновления токенов.
type Request struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Service описывает ротацию refresh-токена.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

// Handler обрабатывает запросы обновления токенов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновление пары токенов
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Refresh-токен"
// @Success 200 {object} response.Response "accessToken, refreshToken"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Токен недействителен"
// @Router /auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error(r, "Invalid request body", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			response.JSON(w, r, http.StatusForbidden, response.Error(r, "Refresh token expired", nil))
		case errors.Is(err, auth.ErrRefreshTokenRevoked):
			log.Info("revoked refresh token presented")
			response.JSON(w, r, http.StatusForbidden, response.Error(r, "Refresh token revoked", nil))
		case errors.Is(err, auth.ErrTokenInvalid):
			response.JSON(w, r, http.StatusForbidden, response.Error(r, "Invalid refresh token", nil))
		default:
			log.Error("token refresh failed", sl.Err(err))
			response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error during token refresh", err))
		}
		return
	}

	response.JSON(w, r, http.StatusOK, response.OK("Token refreshed", pair))
}
