package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/clock"
	"github.com/freedom_case_2/opsync/internal/db"
	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/utils"
)

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrSystemPaused       = errors.New("system is paused")
	ErrAssignmentConflict = errors.New("ticket assignment changed concurrently")
)

const autoAssignActor = "auto-assign"

type AssignmentStore interface {
	GetTicket(ctx context.Context, ticketID string) (models.Ticket, error)
	SetAssignedTo(ctx context.Context, ticketID string, from, to *int64) error
	ListUnassignedOpenTickets(ctx context.Context) ([]models.Ticket, error)
	CountOpenByOperator(ctx context.Context) (map[int64]int, error)
	OperatorNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

type PauseChecker interface {
	IsPaused(ctx context.Context) bool
}

// AssignmentService moves tickets between operators and records every move
// in the ledger.
type AssignmentService struct {
	Store        AssignmentStore
	Availability *Availability
	Ledger       *Ledger
	Pause        PauseChecker
	Clock        clock.Clock
	Logger       zerolog.Logger
	// Candidates limits automatic assignment to these operators. Empty means
	// every operator with an assignment schedule.
	Candidates []int64
}

type ReassignInput struct {
	TicketID     string
	ToOperatorID *int64
	Reason       string
	CreatedBy    string
}

type AutoAssignResult struct {
	TotalUnassigned    int         `json:"total_unassigned"`
	Assigned           int         `json:"assigned"`
	Skipped            int         `json:"skipped"`
	AvailableOperators []int64     `json:"available_operators"`
	Errors             []ItemError `json:"errors"`
}

// Reassign sets the ticket's assignee. A nil ToOperatorID unassigns it.
// Manual reassignment ignores the pause gate. If the assignee changes between
// the read and the write, ErrAssignmentConflict is returned and nothing is
// recorded.
func (s *AssignmentService) Reassign(ctx context.Context, in ReassignInput) (*models.ReassignmentRecord, error) {
	ticketID := strings.TrimSpace(in.TicketID)
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticket_id is required", ErrInvalidInput)
	}
	ticket, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if sameOperator(ticket.AssignedTo, in.ToOperatorID) {
		return nil, fmt.Errorf("%w: ticket %s is already assigned to %s", ErrInvalidInput, ticketID, formatOperator(in.ToOperatorID))
	}

	return s.move(ctx, ticket, in.ToOperatorID, nil, in.Reason, models.ReassignmentManual, in.CreatedBy)
}

// AutoAssign hands every unassigned open ticket to an operator currently
// inside an assignment window, preferring the least loaded one.
func (s *AssignmentService) AutoAssign(ctx context.Context) (AutoAssignResult, error) {
	result := AutoAssignResult{AvailableOperators: []int64{}, Errors: []ItemError{}}
	if s.Pause != nil && s.Pause.IsPaused(ctx) {
		s.Logger.Info().Msg("auto-assign skipped, system paused")
		return result, ErrSystemPaused
	}

	candidates := s.Candidates
	if len(candidates) == 0 {
		ids, err := s.Availability.OperatorsWithSchedules(ctx, models.ScheduleAssignment)
		if err != nil {
			return result, err
		}
		candidates = ids
	}

	tickets, err := s.Store.ListUnassignedOpenTickets(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list unassigned tickets: %w", err)
	}
	result.TotalUnassigned = len(tickets)
	if len(tickets) == 0 {
		return result, nil
	}

	available := s.Availability.AvailableOperators(ctx, candidates, models.ScheduleAssignment, s.Clock.Now())
	result.AvailableOperators = available
	if len(available) == 0 {
		s.Logger.Warn().Int("unassigned", len(tickets)).Msg("no operator available for assignment")
		return result, nil
	}

	loads, err := s.Store.CountOpenByOperator(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to count operator load: %w", err)
	}
	names, err := s.Store.OperatorNames(ctx, available)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("operator names unavailable, recording ids only")
		names = map[int64]string{}
	}

	errs, err := runBatch(ctx, s.Logger, tickets, ticketKey, func(ctx context.Context, t models.Ticket) error {
		pick := PickOperator(t.TicketID, available, loads)
		if _, err := s.move(ctx, t, &pick, names, "available in assignment schedule", models.ReassignmentAutomatic, autoAssignActor); err != nil {
			if errors.Is(err, ErrAssignmentConflict) {
				s.Logger.Info().Str("ticket_id", t.TicketID).Msg("ticket assigned elsewhere meanwhile, skipping")
				result.Skipped++
				return nil
			}
			return err
		}
		loads[pick]++
		result.Assigned++
		return nil
	})
	result.Errors = errs
	if err != nil {
		return result, err
	}

	s.Logger.Info().
		Int("unassigned", result.TotalUnassigned).
		Int("assigned", result.Assigned).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("auto-assign completed")
	return result, nil
}

// PickOperator returns the operator with the fewest open tickets. Ties are
// broken by hashing the ticket id so the same ticket always lands on the same
// operator. available must not be empty.
func PickOperator(ticketID string, available []int64, loads map[int64]int) int64 {
	ordered := append([]int64(nil), available...)
	sort.Slice(ordered, func(i, j int) bool {
		if loads[ordered[i]] == loads[ordered[j]] {
			return ordered[i] < ordered[j]
		}
		return loads[ordered[i]] < loads[ordered[j]]
	})

	least := filterOperators(ordered, func(id int64) bool {
		return loads[id] == loads[ordered[0]]
	})
	return least[utils.PickIndex(ticketID, len(least))]
}

func (s *AssignmentService) move(ctx context.Context, ticket models.Ticket, to *int64, names map[int64]string, reason, kind, by string) (*models.ReassignmentRecord, error) {
	if err := s.Store.SetAssignedTo(ctx, ticket.TicketID, ticket.AssignedTo, to); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrAssignmentConflict
		}
		return nil, fmt.Errorf("failed to update assignee: %w", err)
	}

	if names == nil {
		names = s.lookupNames(ctx, ticket.AssignedTo, to)
	}
	rec, err := s.Ledger.Record(ctx, RecordInput{
		TicketID:         ticket.TicketID,
		FromOperatorID:   ticket.AssignedTo,
		FromOperatorName: nameOf(names, ticket.AssignedTo),
		ToOperatorID:     to,
		ToOperatorName:   nameOf(names, to),
		Reason:           reason,
		ReassignmentType: kind,
		CreatedBy:        by,
	})
	if err != nil {
		// the assignment stands; history is best effort
		s.Logger.Error().Err(err).Str("ticket_id", ticket.TicketID).Msg("assignment applied without history entry")
		return nil, nil
	}
	return rec, nil
}

func (s *AssignmentService) lookupNames(ctx context.Context, ids ...*int64) map[int64]string {
	var wanted []int64
	for _, id := range ids {
		if id != nil {
			wanted = append(wanted, *id)
		}
	}
	if len(wanted) == 0 {
		return map[int64]string{}
	}
	names, err := s.Store.OperatorNames(ctx, wanted)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("operator names unavailable")
		return map[int64]string{}
	}
	return names
}

func nameOf(names map[int64]string, id *int64) string {
	if id == nil {
		return ""
	}
	return names[*id]
}

func filterOperators(ids []int64, keep func(int64) bool) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
