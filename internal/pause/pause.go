// Package pause implements the process-wide kill switch consulted by every
// automated entry point (scheduled sync, auto-assignment, alerting).
//
// The state is a single record that is read whole and replaced whole on
// every mutation. An unreadable record fails open to "not paused" and is
// logged at WARN so a corrupt file never blocks the system silently.
package pause

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/clock"
)

// ErrNoState is returned by a StateStore when nothing has been persisted yet.
var ErrNoState = errors.New("no pause state persisted")

const (
	StatusPaused = "PAUSED"
	StatusActive = "ACTIVE"

	defaultReason = "manual pause"
	defaultActor  = "manual"
)

type State struct {
	Paused    bool       `json:"paused"`
	PausedAt  *time.Time `json:"paused_at"`
	PausedBy  *string    `json:"paused_by"`
	Reason    *string    `json:"reason"`
	ResumedAt *time.Time `json:"resumed_at"`
	ResumedBy *string    `json:"resumed_by"`
}

type Status struct {
	State
	Status string `json:"status"`
}

type StateStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

type Gate struct {
	store  StateStore
	clock  clock.Clock
	logger zerolog.Logger

	mu sync.Mutex
}

func NewGate(store StateStore, clk clock.Clock, logger zerolog.Logger) *Gate {
	return &Gate{store: store, clock: clk, logger: logger.With().Str("component", "pause").Logger()}
}

func (g *Gate) IsPaused(ctx context.Context) bool {
	return g.load(ctx).Paused
}

func (g *Gate) Pause(ctx context.Context, reason, by string) (State, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultReason
	}
	by = actor(by)
	now := g.clock.Now()

	state := State{
		Paused:   true,
		PausedAt: &now,
		PausedBy: &by,
		Reason:   &reason,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Save(ctx, state); err != nil {
		g.logger.Error().Err(err).Msg("failed to persist pause state")
		return State{}, err
	}
	g.logger.Warn().Str("reason", reason).Str("by", by).Msg("system paused")
	return state, nil
}

// Resume clears the pause. Only resumed_at and resumed_by survive; the
// previous pause metadata is dropped.
func (g *Gate) Resume(ctx context.Context, by string) (State, error) {
	by = actor(by)
	now := g.clock.Now()

	state := State{
		Paused:    false,
		ResumedAt: &now,
		ResumedBy: &by,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Save(ctx, state); err != nil {
		g.logger.Error().Err(err).Msg("failed to persist resume state")
		return State{}, err
	}
	g.logger.Info().Str("by", by).Msg("system resumed")
	return state, nil
}

func (g *Gate) Status(ctx context.Context) Status {
	state := g.load(ctx)
	status := StatusActive
	if state.Paused {
		status = StatusPaused
	}
	return Status{State: state, Status: status}
}

func (g *Gate) load(ctx context.Context) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.store.Load(ctx)
	if err == nil {
		return state
	}
	if !errors.Is(err, ErrNoState) {
		g.logger.Warn().Err(err).Msg("pause state unreadable, treating system as NOT paused")
	}
	return State{}
}

func actor(by string) string {
	by = strings.TrimSpace(by)
	if by == "" {
		return defaultActor
	}
	return by
}
