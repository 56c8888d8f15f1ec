// Package logger создаёт slog.Logger по окружению, общий для всех бинарников.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/magabrotheeeer/subscription-manager/internal/config"
)

// New возвращает логгер для env: text/debug в local, JSON/debug в dev, JSON/info в prod.
// Неизвестное окружение обрабатывается как local.
func New(env string) *slog.Logger {
	return newWithWriter(env, os.Stdout)
}

func newWithWriter(env string, w io.Writer) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
