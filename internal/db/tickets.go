package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/freedom_case_2/opsync/internal/models"
)

const ticketColumns = `ticket_id, status, assigned_to, closed_at, is_closed, created_at, updated_at`

func (s *Store) ListOpenTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE closed_at IS NULL AND ticket_id <> ''
		ORDER BY created_at ASC, ticket_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *Store) ListUnassignedOpenTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE closed_at IS NULL AND assigned_to IS NULL AND ticket_id <> ''
		ORDER BY created_at ASC, ticket_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return models.Ticket{}, err
	}
	if len(tickets) == 0 {
		return models.Ticket{}, ErrNotFound
	}
	return tickets[0], nil
}

// CountOpenByOperator returns the number of open tickets currently held by
// each operator.
func (s *Store) CountOpenByOperator(ctx context.Context) (map[int64]int, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT assigned_to, COUNT(*) FROM tickets
		WHERE closed_at IS NULL AND assigned_to IS NOT NULL
		GROUP BY assigned_to
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]int{}
	for rows.Next() {
		var (
			id    int64
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		out[id] = count
	}
	return out, rows.Err()
}

// SetAssignedTo moves the ticket from one assignee to another. The write only
// lands if assigned_to still equals from; otherwise ErrConflict is returned.
func (s *Store) SetAssignedTo(ctx context.Context, ticketID string, from, to *int64) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE tickets SET assigned_to = $2, updated_at = NOW()
		WHERE ticket_id = $1 AND assigned_to IS NOT DISTINCT FROM $3
	`, ticketID, to, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_id = $1)`, ticketID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// ApplyTicketUpdates writes every staged update in one transaction. closed_at
// and is_closed are always derived from the same expression so they cannot
// disagree.
func (s *Store) ApplyTicketUpdates(ctx context.Context, updates []models.TicketUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, u := range updates {
			if u.Status != nil || u.CloseAt != nil {
				_, err := tx.Exec(ctx, `
					UPDATE tickets SET
						status = COALESCE($2, status),
						closed_at = COALESCE(closed_at, $3),
						is_closed = COALESCE(closed_at, $3) IS NOT NULL,
						updated_at = NOW()
					WHERE ticket_id = $1
				`, u.TicketID, u.Status, u.CloseAt)
				if err != nil {
					return fmt.Errorf("update ticket %s status: %w", u.TicketID, err)
				}
			}
			if u.SetAssignee {
				if _, err := tx.Exec(ctx, `UPDATE tickets SET assigned_to = $2, updated_at = NOW() WHERE ticket_id = $1`, u.TicketID, u.AssignedTo); err != nil {
					return fmt.Errorf("update ticket %s assignee: %w", u.TicketID, err)
				}
			}
		}
		return nil
	})
}

func scanTickets(rows pgx.Rows) ([]models.Ticket, error) {
	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.TicketID, &t.Status, &t.AssignedTo, &t.ClosedAt, &t.IsClosed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
