package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/freedom_case_2/opsync/internal/models"
)

func (s *Store) OperatorNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := map[int64]string{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, name FROM operators WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func (s *Store) UpsertOperators(ctx context.Context, operators []models.Operator) error {
	if len(operators) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, op := range operators {
			_, err := tx.Exec(ctx, `
				INSERT INTO operators (id, name, is_active) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active
			`, op.ID, op.Name, op.IsActive)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
