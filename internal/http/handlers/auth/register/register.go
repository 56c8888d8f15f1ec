// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Имя с HTML-разметкой отклоняется, длина пароля ограничена в байтах
// пределом bcrypt. Роль admin доступна только с корректным adminKey.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"
	"github.com/microcosm-cc/bluemonday"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/auth"
)

// Request входные данные для регистрации.
type Request struct {
	Name     string `json:"name" validate:"required,min=2,max=100,nomarkup"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,bytemax=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
	AdminKey string `json:"adminKey"`
}

// Service описывает регистрацию в сервисе аутентификации.
type Service interface {
	Register(ctx context.Context, in models.NewUser) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
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
		validate: newValidator(bluemonday.StrictPolicy()),
	}
}

// newValidator добавляет к стандартным правилам nomarkup и bytemax.
func newValidator(policy *bluemonday.Policy) *validator.Validate {
	v := validator.New()
	// nomarkup: StrictPolicy вырезает теги и экранирует текст,
	// поэтому после обратного экранирования строка без разметки не меняется
	_ = v.RegisterValidation("nomarkup", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return html.UnescapeString(policy.Sanitize(s)) == s
	})
	_ = v.RegisterValidation("bytemax", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Неверный ключ администратора"
// @Failure 409 {object} response.ErrorResponse "Email занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.service.Register(r.Context(), models.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		AdminKey: req.AdminKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			log.Info("email already registered")
			response.JSON(w, r, http.StatusConflict, response.Error(r, "User already exists with this email", nil))
		case errors.Is(err, auth.ErrInvalidAdminKey):
			log.Warn("admin registration with invalid key")
			response.JSON(w, r, http.StatusForbidden, response.Error(r, "Invalid admin registration key", nil))
		case errors.Is(err, auth.ErrInvalidRole):
			response.JSON(w, r, http.StatusBadRequest, response.Error(r, "Invalid role", nil))
		default:
			log.Error("registration failed", sl.Err(err))
			response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Server error during registration", err))
		}
		return
	}

	log.Info("user registered", slog.String("user_id", user.UserID), slog.String("role", user.Role))
	response.JSON(w, r, http.StatusCreated, response.OK("User registered successfully", map[string]any{
		"user": user,
	}))
}
