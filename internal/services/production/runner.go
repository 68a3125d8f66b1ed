package production

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickInterval is the real-time cadence of a headless host.
const DefaultTickInterval = time.Second

// StepFunc advances the simulation to the current moment.
type StepFunc func() error

// Runner drives a StepFunc from a time.Ticker until its context ends.
// It is the recurring timer for hosts without their own event loop.
type Runner struct {
	step     StepFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a runner. A non-positive interval uses DefaultTickInterval.
func NewRunner(step StepFunc, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{step: step, interval: interval, logger: logger}
}

// Run calls step once per interval. Steps never overlap. A failing step is
// logged and the loop continues. Run returns nil when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("production runner started", "interval", r.interval)
	for {
		select {
		case <-ticker.C:
			if err := r.step(); err != nil {
				r.logger.Error("production step failed", "error", err)
			}
		case <-ctx.Done():
			r.logger.Info("production runner stopped")
			return nil
		}
	}
}
