package pipeline

// scheduler.go re-runs the integrity check on a fixed interval.
//
// Source files are replaced out of band (new dataset exports land in the
// raw directory), so a periodic re-check keeps the latest report honest
// without anyone pressing the button. The scheduler is long-running and
// context-aware for graceful shutdown; a failed or skipped cycle is
// logged, never fatal.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartScheduler runs an integrity check immediately, then every interval,
// until the context is cancelled. An interval of zero disables scheduling.
func (s *Service) StartScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Info("check scheduler disabled")
		return
	}

	slog.Info("check scheduler started", "interval", interval.String())

	s.runScheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("check scheduler stopped")
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

// runScheduled performs one scheduled check cycle.
func (s *Service) runScheduled(ctx context.Context) {
	result, err := s.Run(ctx)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			slog.Debug("scheduled check skipped, run already in progress")
			return
		}
		slog.Error("scheduled check failed", "error", err)
		return
	}
	slog.Info("scheduled check completed",
		"run_id", result.ID.String(),
		"overall", result.Overall,
	)
}
