// Package middlewarectx содержит HTTP middleware аутентификации и авторизации.
//
// JWTMiddleware проверяет access-токен из заголовка Authorization, загружает
// пользователя из БД и кладёт его Identity в контекст запроса. RequireRole
// пропускает дальше только пользователей с нужной ролью.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey ключ подтверждённого пользователя в контексте.
const IdentityKey Key = "identity"

var ErrForbidden = errors.New("insufficient role")

// Authenticator проверяет access-токен и возвращает пользователя.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// WithIdentity кладёт пользователя в контекст.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom достаёт пользователя, положенного JWTMiddleware.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(models.Identity)
	return id, ok
}

// JWTMiddleware возвращает middleware, который требует Bearer-токен.
//
// Нет токена или пользователь удалён: 401. Токен невалиден или истёк: 403.
func JWTMiddleware(authService Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Debug("missing bearer token")
				response.JSON(w, r, http.StatusUnauthorized, response.Error(r, "Access token required", nil))
				return
			}

			identity, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					log.Info("token expired")
					response.JSON(w, r, http.StatusForbidden, response.Error(r, "Token expired", err))
				case errors.Is(err, auth.ErrTokenInvalid):
					log.Info("invalid token", sl.Err(err))
					response.JSON(w, r, http.StatusForbidden, response.Error(r, "Invalid token", err))
				case errors.Is(err, auth.ErrUserNotFound):
					log.Info("token for unknown user")
					response.JSON(w, r, http.StatusUnauthorized, response.Error(r, "User not found", err))
				default:
					log.Error("authentication failed", sl.Err(err))
					response.JSON(w, r, http.StatusInternalServerError, response.Error(r, "Authentication error", err))
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

// CheckRole чистая проверка роли, хранилище не используется.
func CheckRole(identity models.Identity, role string) error {
	if identity.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireRole пропускает запрос, только если у пользователя роль role.
// Должен стоять после JWTMiddleware.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				response.JSON(w, r, http.StatusUnauthorized, response.Error(r, "Access token required", nil))
				return
			}
			if err := CheckRole(identity, role); err != nil {
				log.Warn("role check failed",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_id", identity.UserID),
					slog.String("required_role", role))
				response.JSON(w, r, http.StatusForbidden, response.Error(r, "Admin access required", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
