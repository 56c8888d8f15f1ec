// Package scheduler периодически переводит просроченные подписки в expired.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// Expirer выполняет один проход перевода просроченных подписок.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// SchedulerService запускает Expirer по таймеру.
type SchedulerService struct {
	expirer  Expirer
	interval time.Duration
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(expirer Expirer, interval time.Duration, log *slog.Logger) *SchedulerService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SchedulerService{
		expirer:  expirer,
		interval: interval,
		log:      log,
	}
}

// Run выполняет проход сразу и затем с заданным интервалом, пока ctx не отменён.
func (s *SchedulerService) Run(ctx context.Context) {
	s.log.Info("expiry sweeper started", slog.Duration("interval", s.interval))
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход. Ошибка логируется, следующий проход будет по таймеру.
func (s *SchedulerService) RunOnce(ctx context.Context) {
	const op = "services.scheduler.RunOnce"
	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error("failed to expire overdue subscriptions", sl.Op(op), sl.Err(err))
		return
	}
	if n == 0 {
		s.log.Debug("no overdue subscriptions", sl.Op(op))
		return
	}
	s.log.Info("expired overdue subscriptions", sl.Op(op), slog.Int("count", n))
}
