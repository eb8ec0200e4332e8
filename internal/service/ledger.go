package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/models"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultRecentLimit   = 100
	DefaultOperatorLimit = 50
	MaxHistoryLimit      = 500

	UnassignedLabel = "Unassigned"
)

type ReassignmentStore interface {
	InsertReassignment(ctx context.Context, rec models.ReassignmentRecord) (models.ReassignmentRecord, error)
	ListReassignmentsByTicket(ctx context.Context, ticketID string) ([]models.ReassignmentRecord, error)
	ListRecentReassignments(ctx context.Context, limit int) ([]models.ReassignmentRecord, error)
	ListReassignmentsByOperator(ctx context.Context, operatorID int64, limit int) ([]models.ReassignmentRecord, error)
}

type RecordInput struct {
	TicketID         string
	FromOperatorID   *int64
	FromOperatorName string
	ToOperatorID     *int64
	ToOperatorName   string
	Reason           string
	ReassignmentType string
	CreatedBy        string
}

// Ledger is the append-only reassignment history.
type Ledger struct {
	Store  ReassignmentStore
	Logger zerolog.Logger
}

func (l *Ledger) Record(ctx context.Context, in RecordInput) (*models.ReassignmentRecord, error) {
	ticketID := strings.TrimSpace(in.TicketID)
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticket_id is required", ErrInvalidInput)
	}
	kind := strings.TrimSpace(in.ReassignmentType)
	if kind == "" {
		kind = models.ReassignmentManual
	}
	if !validReassignmentType(kind) {
		return nil, fmt.Errorf("%w: unknown reassignment_type %q", ErrInvalidInput, kind)
	}
	createdBy := strings.TrimSpace(in.CreatedBy)
	if createdBy == "" {
		createdBy = "system"
	}

	rec := models.ReassignmentRecord{
		TicketID:         ticketID,
		FromOperatorID:   in.FromOperatorID,
		FromOperatorName: optionalName(in.FromOperatorName),
		ToOperatorID:     in.ToOperatorID,
		ToOperatorName:   optionalName(in.ToOperatorName),
		Reason:           in.Reason,
		ReassignmentType: kind,
		CreatedBy:        createdBy,
	}

	saved, err := l.Store.InsertReassignment(ctx, rec)
	if err != nil {
		l.Logger.Error().Err(err).Str("ticket_id", ticketID).Msg("failed to record reassignment")
		return nil, fmt.Errorf("failed to record reassignment: %w", err)
	}
	l.Logger.Info().
		Str("ticket_id", ticketID).
		Str("from", DisplayName(saved.FromOperatorName)).
		Str("to", DisplayName(saved.ToOperatorName)).
		Str("type", kind).
		Msg("reassignment recorded")
	return &saved, nil
}

func (l *Ledger) HistoryForTicket(ctx context.Context, ticketID string) ([]models.ReassignmentRecord, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticket_id is required", ErrInvalidInput)
	}
	return l.Store.ListReassignmentsByTicket(ctx, ticketID)
}

func (l *Ledger) RecentGlobal(ctx context.Context, limit int) ([]models.ReassignmentRecord, error) {
	return l.Store.ListRecentReassignments(ctx, ClampLimit(limit, DefaultRecentLimit))
}

// HistoryForOperator returns records where operatorID is either the source
// or the destination.
func (l *Ledger) HistoryForOperator(ctx context.Context, operatorID int64, limit int) ([]models.ReassignmentRecord, error) {
	return l.Store.ListReassignmentsByOperator(ctx, operatorID, ClampLimit(limit, DefaultOperatorLimit))
}

// ClampLimit maps a non-positive limit to def and caps it at MaxHistoryLimit.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func DisplayName(name *string) string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return UnassignedLabel
	}
	return *name
}

func optionalName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

func validReassignmentType(kind string) bool {
	switch kind {
	case models.ReassignmentManual, models.ReassignmentAutomatic, models.ReassignmentEscalation, models.ReassignmentSync:
		return true
	}
	return false
}
