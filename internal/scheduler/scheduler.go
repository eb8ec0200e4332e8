// Package scheduler runs the ticket sync on a fixed interval inside the
// server process.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/service"
)

type Syncer interface {
	SyncOpenTickets(ctx context.Context) (service.SyncResult, error)
}

type PauseChecker interface {
	IsPaused(ctx context.Context) bool
}

type Runner struct {
	Interval time.Duration
	Sync     Syncer
	Pause    PauseChecker
	Logger   zerolog.Logger
}

// Run ticks every Interval until ctx is cancelled. The first pass happens
// one interval after start. A non-positive Interval disables the loop.
func (r *Runner) Run(ctx context.Context) {
	if r.Interval <= 0 {
		r.Logger.Error().Dur("interval", r.Interval).Msg("sync scheduler not started, interval must be positive")
		return
	}
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.Logger.Info().Dur("interval", r.Interval).Msg("sync scheduler started")
	for {
		select {
		case <-ticker.C:
			r.Tick(ctx)
		case <-ctx.Done():
			r.Logger.Info().Msg("sync scheduler stopped")
			return
		}
	}
}

// Tick performs one scheduled pass. It reports whether a sync actually ran.
func (r *Runner) Tick(ctx context.Context) bool {
	if r.Pause != nil && r.Pause.IsPaused(ctx) {
		r.Logger.Info().Msg("system paused, skipping scheduled sync")
		return false
	}

	res, err := r.Sync.SyncOpenTickets(ctx)
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		r.Logger.Info().Msg("previous sync still running, skipping")
		return false
	case errors.Is(err, context.Canceled):
		return false
	case err != nil:
		r.Logger.Error().Err(err).Msg("scheduled sync failed")
		return true
	}
	r.Logger.Debug().
		Int("total_checked", res.TotalChecked).
		Int("closed", res.ClosedCount).
		Msg("scheduled sync finished")
	return true
}
