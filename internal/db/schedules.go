package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/freedom_case_2/opsync/internal/models"
)

func (s *Store) ListSchedules(ctx context.Context, personID int64, scheduleType models.ScheduleType, dayOfWeek int) ([]models.OperatorSchedule, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, person_id, day_of_week, start_time, end_time, schedule_type, is_active
		FROM operator_schedule
		WHERE person_id = $1 AND schedule_type = $2 AND day_of_week = $3 AND is_active
		ORDER BY start_time ASC, id ASC
	`, personID, string(scheduleType), dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (s *Store) ListOperatorSchedules(ctx context.Context, personID int64, scheduleType models.ScheduleType) ([]models.OperatorSchedule, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, person_id, day_of_week, start_time, end_time, schedule_type, is_active
		FROM operator_schedule
		WHERE person_id = $1 AND schedule_type = $2
		ORDER BY day_of_week ASC, start_time ASC, id ASC
	`, personID, string(scheduleType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (s *Store) ListScheduledOperators(ctx context.Context, scheduleType models.ScheduleType) ([]int64, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT DISTINCT person_id FROM operator_schedule
		WHERE schedule_type = $1 AND is_active
		ORDER BY person_id ASC
	`, string(scheduleType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ReplaceSchedules deletes every window of the given types and inserts
// schedules in the same transaction.
func (s *Store) ReplaceSchedules(ctx context.Context, types []models.ScheduleType, schedules []models.OperatorSchedule) (int64, error) {
	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}
	rows := make([][]any, 0, len(schedules))
	for _, sc := range schedules {
		rows = append(rows, []any{sc.PersonID, sc.DayOfWeek, sc.StartTime, sc.EndTime, string(sc.ScheduleType), sc.IsActive})
	}

	var inserted int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM operator_schedule WHERE schedule_type = ANY($1)`, typeNames); err != nil {
			return fmt.Errorf("delete schedules: %w", err)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"operator_schedule"},
			[]string{"person_id", "day_of_week", "start_time", "end_time", "schedule_type", "is_active"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("insert schedules: %w", err)
		}
		inserted = n
		return nil
	})
	return inserted, err
}

func scanSchedules(rows pgx.Rows) ([]models.OperatorSchedule, error) {
	var out []models.OperatorSchedule
	for rows.Next() {
		var (
			sc           models.OperatorSchedule
			scheduleType string
		)
		if err := rows.Scan(&sc.ID, &sc.PersonID, &sc.DayOfWeek, &sc.StartTime, &sc.EndTime, &scheduleType, &sc.IsActive); err != nil {
			return nil, err
		}
		sc.ScheduleType = models.ScheduleType(scheduleType)
		out = append(out, sc)
	}
	return out, rows.Err()
}
