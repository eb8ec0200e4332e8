// Package app builds the shared component graph used by both the HTTP server
// and the opsctl CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/clock"
	"github.com/freedom_case_2/opsync/internal/config"
	"github.com/freedom_case_2/opsync/internal/db"
	"github.com/freedom_case_2/opsync/internal/pause"
	"github.com/freedom_case_2/opsync/internal/scheduler"
	"github.com/freedom_case_2/opsync/internal/service"
	"github.com/freedom_case_2/opsync/internal/ticketapi"
)

// mockOperators seeds the mock ticket API when no real endpoint is set.
var mockOperators = []int64{10, 27, 37, 38}

type App struct {
	Config config.Config
	Logger zerolog.Logger

	Store *db.Store
	Redis *redis.Client
	Clock clock.Clock
	Gate  *pause.Gate
	API   ticketapi.Client

	Availability *service.Availability
	Ledger       *service.Ledger
	Sync         *service.Synchronizer
	Assignment   *service.AssignmentService
	Scheduler    *scheduler.Runner
}

func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	candidates, err := cfg.AssignableOperatorIDs()
	if err != nil {
		return nil, err
	}

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect db: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Clock:  clock.Real(loc),
	}

	stateStore, err := a.pauseStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Gate = pause.NewGate(stateStore, a.Clock, logger)
	a.API = a.ticketClient(candidates)

	a.Availability = &service.Availability{
		Schedules: store,
		Clock:     a.Clock,
		Logger:    logger.With().Str("component", "availability").Logger(),
	}
	a.Ledger = &service.Ledger{
		Store:  store,
		Logger: logger.With().Str("component", "ledger").Logger(),
	}
	a.Sync = &service.Synchronizer{
		Tickets:        store,
		Runs:           store,
		API:            a.API,
		Ledger:         a.Ledger,
		Names:          store,
		Clock:          a.Clock,
		Logger:         logger.With().Str("component", "sync").Logger(),
		ClosedStatuses: cfg.ClosedStatusList(),
		CallTimeout:    cfg.TicketAPITimeout,
	}
	a.Assignment = &service.AssignmentService{
		Store:        store,
		Availability: a.Availability,
		Ledger:       a.Ledger,
		Pause:        a.Gate,
		Clock:        a.Clock,
		Logger:       logger.With().Str("component", "assignment").Logger(),
		Candidates:   candidates,
	}
	a.Scheduler = &scheduler.Runner{
		Interval: cfg.SyncInterval,
		Sync:     a.Sync,
		Pause:    a.Gate,
		Logger:   logger.With().Str("component", "scheduler").Logger(),
	}
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

func (a *App) pauseStore(ctx context.Context) (pause.StateStore, error) {
	switch strings.ToLower(a.Config.PauseBackend) {
	case "", "file":
		a.Logger.Info().Str("path", a.Config.PauseStateFile).Msg("using file pause state")
		return pause.NewFileStore(a.Config.PauseStateFile), nil
	case "redis":
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			// the gate fails open on read errors, so keep going
			a.Logger.Warn().Err(err).Str("addr", a.Config.RedisAddr).Msg("redis unreachable at startup")
		}
		return pause.NewRedisStore(a.Redis, a.Config.PauseRedisKey), nil
	}
	return nil, fmt.Errorf("unknown PAUSE_BACKEND %q", a.Config.PauseBackend)
}

func (a *App) ticketClient(candidates []int64) ticketapi.Client {
	if a.Config.TicketAPIURL == "" {
		ops := candidates
		if len(ops) == 0 {
			ops = mockOperators
		}
		a.Logger.Info().Msg("using mock ticket API")
		return ticketapi.MockClient{Operators: ops}
	}
	return ticketapi.NewHTTPClient(a.Config.TicketAPIURL, a.Config.TicketAPIKey, a.Config.TicketAPISecret, a.Config.TicketAPITimeout)
}
