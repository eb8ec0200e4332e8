package db

import (
	"context"
	"time"

	"github.com/freedom_case_2/opsync/internal/models"
)

func (s *Store) CreateRun(ctx context.Context, kind string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO sync_runs (kind, status, started_at) VALUES ($1, $2, NOW()) RETURNING id::text`,
		kind, models.RunStatusRunning).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE sync_runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3::uuid`, status, summary, runID)
	return err
}

// GetLatestRun returns the most recent run, optionally restricted to kind.
func (s *Store) GetLatestRun(ctx context.Context, kind string) (models.SyncRun, error) {
	query := `SELECT id::text, kind, status, summary, started_at, finished_at FROM sync_runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC LIMIT 1`

	var (
		run      models.SyncRun
		finished *time.Time
	)
	err := s.Pool.QueryRow(ctx, query, args...).Scan(&run.ID, &run.Kind, &run.Status, &run.Summary, &run.StartedAt, &finished)
	if err != nil {
		return models.SyncRun{}, notFound(err)
	}
	run.FinishedAt = finished
	return run, nil
}
