package usecase

import (
	"context"
	"log/slog"
	"time"

	"ResultViewer/internal/ports"
)

// Janitor wires the ticking driver with idle-view expiry.
type Janitor struct {
	driver   ports.Scheduler
	sessions *Sessions
	idle     time.Duration
	logger   *slog.Logger
}

// NewJanitor returns a helper to start/stop the recurring sweep.
func NewJanitor(driver ports.Scheduler, sessions *Sessions, idle time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{driver: driver, sessions: sessions, idle: idle, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (j *Janitor) Start(ctx context.Context) error {
	if j.driver == nil || j.sessions == nil || j.idle <= 0 {
		return nil
	}

	job := func(trigger time.Time) {
		expired := j.sessions.Sweep(trigger, j.idle)
		if len(expired) > 0 && j.logger != nil {
			j.logger.Info("expired idle views", "count", len(expired), "open", j.sessions.Len())
		}
	}

	return j.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (j *Janitor) Stop(ctx context.Context) error {
	if j.driver == nil {
		return nil
	}

	return j.driver.Stop(ctx)
}
