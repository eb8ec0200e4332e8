package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/freedom_case_2/opsync/internal/models"
)

const reassignmentColumns = `id, ticket_id, from_operator_id, from_operator_name, to_operator_id, to_operator_name,
	reason, reassignment_type, created_by, created_at`

// InsertReassignment appends one history row. Rows are never updated or
// deleted.
func (s *Store) InsertReassignment(ctx context.Context, rec models.ReassignmentRecord) (models.ReassignmentRecord, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO ticket_reassignment_history
			(ticket_id, from_operator_id, from_operator_name, to_operator_id, to_operator_name, reason, reassignment_type, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, rec.TicketID, rec.FromOperatorID, rec.FromOperatorName, rec.ToOperatorID, rec.ToOperatorName,
		rec.Reason, rec.ReassignmentType, rec.CreatedBy).Scan(&rec.ID, &rec.CreatedAt)
	return rec, err
}

func (s *Store) ListReassignmentsByTicket(ctx context.Context, ticketID string) ([]models.ReassignmentRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+reassignmentColumns+`
		FROM ticket_reassignment_history
		WHERE ticket_id = $1
		ORDER BY created_at DESC, id DESC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReassignments(rows)
}

func (s *Store) ListRecentReassignments(ctx context.Context, limit int) ([]models.ReassignmentRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+reassignmentColumns+`
		FROM ticket_reassignment_history
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReassignments(rows)
}

func (s *Store) ListReassignmentsByOperator(ctx context.Context, operatorID int64, limit int) ([]models.ReassignmentRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+reassignmentColumns+`
		FROM ticket_reassignment_history
		WHERE from_operator_id = $1 OR to_operator_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, operatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReassignments(rows)
}

func scanReassignments(rows pgx.Rows) ([]models.ReassignmentRecord, error) {
	out := []models.ReassignmentRecord{}
	for rows.Next() {
		var r models.ReassignmentRecord
		if err := rows.Scan(&r.ID, &r.TicketID, &r.FromOperatorID, &r.FromOperatorName, &r.ToOperatorID, &r.ToOperatorName,
			&r.Reason, &r.ReassignmentType, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
