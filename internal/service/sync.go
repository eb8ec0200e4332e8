package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/clock"
	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/ticketapi"
)

var ErrRunInProgress = errors.New("a reconciliation run is already in progress")

const syncActor = "sync"

var DefaultClosedStatuses = []string{"closed", "success", "resolved", "done"}

type TicketStore interface {
	ListOpenTickets(ctx context.Context) ([]models.Ticket, error)
	ApplyTicketUpdates(ctx context.Context, updates []models.TicketUpdate) error
}

type OperatorNamer interface {
	OperatorNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

type RunRecorder interface {
	CreateRun(ctx context.Context, kind string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
}

// Synchronizer reconciles local tickets against the external ticket system.
// Remote lookups happen first; the staged changes are then written in one
// transaction, so a pass either lands completely or not at all.
type Synchronizer struct {
	Tickets        TicketStore
	Runs           RunRecorder
	API            ticketapi.Client
	// Ledger receives one sync entry per assignee change made by
	// MigrateAssignedTo. Names is optional and only fills display names.
	Ledger         *Ledger
	Names          OperatorNamer
	Clock          clock.Clock
	Logger         zerolog.Logger
	ClosedStatuses []string
	CallTimeout    time.Duration

	running sync.Mutex
}

type SyncResult struct {
	TotalChecked int         `json:"total_checked"`
	ClosedCount  int         `json:"closed_count"`
	UpdatedCount int         `json:"updated_count"`
	Errors       []ItemError `json:"errors"`
}

type MigrateResult struct {
	TotalChecked int         `json:"total_checked"`
	UpdatedCount int         `json:"updated_count"`
	Errors       []ItemError `json:"errors"`
}

// SyncOpenTickets copies the external status of every open ticket and closes
// the ones the external system reports as closed.
func (s *Synchronizer) SyncOpenTickets(ctx context.Context) (SyncResult, error) {
	if !s.running.TryLock() {
		return SyncResult{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	result := SyncResult{Errors: []ItemError{}}
	runID := s.startRun(ctx, models.RunKindSync)

	tickets, err := s.Tickets.ListOpenTickets(ctx)
	if err != nil {
		err = fmt.Errorf("failed to list open tickets: %w", err)
		s.finishRun(ctx, runID, result, err)
		return result, err
	}
	result.TotalChecked = len(tickets)
	s.Logger.Info().Int("open_tickets", len(tickets)).Msg("ticket sync started")

	closed := s.closedSet()
	var updates []models.TicketUpdate

	errs, err := runBatch(ctx, s.Logger, tickets, ticketKey, func(ctx context.Context, t models.Ticket) error {
		remote, err := s.lookup(ctx, t.TicketID)
		if err != nil {
			return err
		}

		status := strings.TrimSpace(remote.Status)
		if status == "" {
			status = t.Status
		}
		if _, ok := closed[strings.ToLower(status)]; ok {
			now := s.Clock.Now()
			updates = append(updates, models.TicketUpdate{TicketID: t.TicketID, Status: &status, CloseAt: &now})
			result.ClosedCount++
			s.Logger.Info().Str("ticket_id", t.TicketID).Str("status", status).Msg("ticket closed upstream")
			return nil
		}
		if status != t.Status {
			updates = append(updates, models.TicketUpdate{TicketID: t.TicketID, Status: &status})
			result.UpdatedCount++
		}
		return nil
	})
	result.Errors = errs
	if err != nil {
		s.Logger.Warn().Err(err).Msg("ticket sync cancelled, nothing committed")
		s.finishRun(ctx, runID, result, err)
		return result, err
	}

	if err := s.Tickets.ApplyTicketUpdates(ctx, updates); err != nil {
		err = fmt.Errorf("failed to commit ticket sync: %w", err)
		s.Logger.Error().Err(err).Int("staged", len(updates)).Msg("ticket sync rolled back")
		s.finishRun(ctx, runID, result, err)
		return result, err
	}

	s.Logger.Info().
		Int("total_checked", result.TotalChecked).
		Int("closed", result.ClosedCount).
		Int("updated", result.UpdatedCount).
		Int("errors", len(result.Errors)).
		Msg("ticket sync completed")
	s.finishRun(ctx, runID, result, nil)
	return result, nil
}

// MigrateAssignedTo re-derives assigned_to from the external payload and
// writes it only where it differs from the stored value.
func (s *Synchronizer) MigrateAssignedTo(ctx context.Context) (MigrateResult, error) {
	if !s.running.TryLock() {
		return MigrateResult{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	result := MigrateResult{Errors: []ItemError{}}
	runID := s.startRun(ctx, models.RunKindMigrateAssigned)

	tickets, err := s.Tickets.ListOpenTickets(ctx)
	if err != nil {
		err = fmt.Errorf("failed to list open tickets: %w", err)
		s.finishRun(ctx, runID, result, err)
		return result, err
	}
	result.TotalChecked = len(tickets)

	var (
		updates []models.TicketUpdate
		moves   []assigneeMove
	)
	errs, err := runBatch(ctx, s.Logger, tickets, ticketKey, func(ctx context.Context, t models.Ticket) error {
		remote, err := s.lookup(ctx, t.TicketID)
		if err != nil {
			return err
		}
		assignee, err := ticketapi.Assignee(remote.Fields, ticketapi.AssigneeFields)
		if err != nil {
			return err
		}
		if sameOperator(t.AssignedTo, assignee) {
			return nil
		}
		s.Logger.Info().
			Str("ticket_id", t.TicketID).
			Str("old", formatOperator(t.AssignedTo)).
			Str("new", formatOperator(assignee)).
			Msg("assigned_to changed")
		updates = append(updates, models.TicketUpdate{TicketID: t.TicketID, SetAssignee: true, AssignedTo: assignee})
		moves = append(moves, assigneeMove{ticketID: t.TicketID, from: t.AssignedTo, to: assignee})
		result.UpdatedCount++
		return nil
	})
	result.Errors = errs
	if err != nil {
		s.finishRun(ctx, runID, result, err)
		return result, err
	}

	if err := s.Tickets.ApplyTicketUpdates(ctx, updates); err != nil {
		err = fmt.Errorf("failed to commit assigned_to migration: %w", err)
		s.finishRun(ctx, runID, result, err)
		return result, err
	}
	s.recordMoves(ctx, moves)

	s.Logger.Info().
		Int("total_checked", result.TotalChecked).
		Int("updated", result.UpdatedCount).
		Int("errors", len(result.Errors)).
		Msg("assigned_to migration completed")
	s.finishRun(ctx, runID, result, nil)
	return result, nil
}

type assigneeMove struct {
	ticketID string
	from, to *int64
}

// recordMoves writes a sync ledger entry for every committed assignee change.
// Failures are logged; the migration has already landed.
func (s *Synchronizer) recordMoves(ctx context.Context, moves []assigneeMove) {
	if s.Ledger == nil || len(moves) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	names := s.moveNames(ctx, moves)
	for _, m := range moves {
		_, err := s.Ledger.Record(ctx, RecordInput{
			TicketID:         m.ticketID,
			FromOperatorID:   m.from,
			FromOperatorName: nameOf(names, m.from),
			ToOperatorID:     m.to,
			ToOperatorName:   nameOf(names, m.to),
			Reason:           "assignee changed in external system",
			ReassignmentType: models.ReassignmentSync,
			CreatedBy:        syncActor,
		})
		if err != nil {
			s.Logger.Error().Err(err).Str("ticket_id", m.ticketID).Msg("assignee migrated without history entry")
		}
	}
}

func (s *Synchronizer) moveNames(ctx context.Context, moves []assigneeMove) map[int64]string {
	if s.Names == nil {
		return map[int64]string{}
	}
	seen := map[int64]bool{}
	var ids []int64
	for _, m := range moves {
		for _, id := range []*int64{m.from, m.to} {
			if id != nil && !seen[*id] {
				seen[*id] = true
				ids = append(ids, *id)
			}
		}
	}
	if len(ids) == 0 {
		return map[int64]string{}
	}
	names, err := s.Names.OperatorNames(ctx, ids)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("operator names unavailable")
		return map[int64]string{}
	}
	return names
}

func (s *Synchronizer) lookup(ctx context.Context, ticketID string) (ticketapi.Ticket, error) {
	if s.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CallTimeout)
		defer cancel()
	}
	remote, err := s.API.GetTicket(ctx, ticketID)
	if err != nil {
		return ticketapi.Ticket{}, fmt.Errorf("external lookup: %w", err)
	}
	return remote, nil
}

func (s *Synchronizer) closedSet() map[string]struct{} {
	statuses := s.ClosedStatuses
	if len(statuses) == 0 {
		statuses = DefaultClosedStatuses
	}
	set := make(map[string]struct{}, len(statuses))
	for _, st := range statuses {
		set[strings.ToLower(strings.TrimSpace(st))] = struct{}{}
	}
	return set
}

func (s *Synchronizer) startRun(ctx context.Context, kind string) string {
	if s.Runs == nil {
		return ""
	}
	id, err := s.Runs.CreateRun(ctx, kind)
	if err != nil {
		s.Logger.Warn().Err(err).Str("kind", kind).Msg("failed to record run start")
		return ""
	}
	return id
}

func (s *Synchronizer) finishRun(ctx context.Context, runID string, summary any, runErr error) {
	if s.Runs == nil || runID == "" {
		return
	}
	status := models.RunStatusSuccess
	payload := map[string]any{"result": summary}
	if runErr != nil {
		status = models.RunStatusFailed
		payload["error"] = runErr.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("failed to encode run summary")
		data = nil
	}
	// the caller's context may already be cancelled; the run row still needs closing
	if err := s.Runs.FinishRun(context.WithoutCancel(ctx), runID, status, data); err != nil {
		s.Logger.Warn().Err(err).Str("run_id", runID).Msg("failed to record run result")
	}
}

func ticketKey(t models.Ticket) string { return t.TicketID }

func sameOperator(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatOperator(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}
