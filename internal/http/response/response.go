// Package response формирует унифицированные JSON-ответы {success, message, data}.
//
// В окружениях local и dev в ответ с ошибкой добавляется поле error с текстом
// внутренней ошибки. Флаг кладётся в контекст запроса middleware ExposeErrors.
package response

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

// Response успешный ответ. Data сериализуется всегда, в том числе как null.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// ErrorResponse ответ с ошибкой.
type ErrorResponse struct {
	Success bool     `json:"success" example:"false"`
	Message string   `json:"message" example:"Invalid token"`
	Errors  []string `json:"errors,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type ctxKey struct{}

// ExposeErrors разрешает или запрещает отдавать клиенту текст внутренних ошибок.
func ExposeErrors(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKey{}, expose)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func exposed(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// OK возвращает успешный ответ.
func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Error возвращает ответ с ошибкой. err попадает в ответ только при включённом ExposeErrors.
func Error(r *http.Request, message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message}
	if err != nil && exposed(r.Context()) {
		resp.Error = err.Error()
	}
	return resp
}

// JSON пишет статус и тело ответа.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// ValidationError формирует ответ 400 по ошибкам валидатора.
// Каждое нарушение превращается в читаемую строку.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		field := strings.ToLower(err.Field()[:1]) + err.Field()[1:]
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, err.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, err.Param()))
		case "bytemax":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s bytes", field, err.Param()))
		case "nomarkup":
			msgs = append(msgs, fmt.Sprintf("%s must not contain HTML markup", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not valid", field))
		}
	}
	return ErrorResponse{
		Message: "Validation failed",
		Errors:  msgs,
	}
}
