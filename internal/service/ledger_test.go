package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freedom_case_2/opsync/internal/models"
)

func newLedger() (*Ledger, *fakeHistory) {
	store := &fakeHistory{base: syncNow}
	return &Ledger{Store: store, Logger: zerolog.Nop()}, store
}

func TestLedgerRecordDefaults(t *testing.T) {
	l, _ := newLedger()
	rec, err := l.Record(context.Background(), RecordInput{
		TicketID:       "T1",
		ToOperatorID:   ptr[int64](27),
		ToOperatorName: "  Ana  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ReassignmentType != models.ReassignmentManual || rec.CreatedBy != "system" || rec.Reason != "" {
		t.Fatalf("expected defaults, got %+v", rec)
	}
	if rec.FromOperatorName != nil {
		t.Fatalf("expected empty from name stored as null")
	}
	if rec.ToOperatorName == nil || *rec.ToOperatorName != "Ana" {
		t.Fatalf("expected trimmed to name, got %v", rec.ToOperatorName)
	}
	if rec.ID == 0 || rec.CreatedAt.IsZero() {
		t.Fatalf("expected stored id and timestamp")
	}
}

func TestLedgerRejectsMalformedInput(t *testing.T) {
	l, store := newLedger()
	if _, err := l.Record(context.Background(), RecordInput{TicketID: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := l.Record(context.Background(), RecordInput{TicketID: "T1", ReassignmentType: "teleport"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("storage must not be touched")
	}
}

func TestLedgerSurfacesStorageFailure(t *testing.T) {
	l, store := newLedger()
	store.err = errBoom
	rec, err := l.Record(context.Background(), RecordInput{TicketID: "T1"})
	if !errors.Is(err, errBoom) || rec != nil {
		t.Fatalf("expected storage error, got %v / %+v", err, rec)
	}
}

func TestLedgerHistoryNewestFirst(t *testing.T) {
	l, _ := newLedger()
	ctx := context.Background()
	for _, to := range []int64{10, 27, 37} {
		if _, err := l.Record(ctx, RecordInput{TicketID: "T1", ToOperatorID: ptr(to)}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if _, err := l.Record(ctx, RecordInput{TicketID: "T2", ToOperatorID: ptr[int64](38)}); err != nil {
		t.Fatalf("record: %v", err)
	}

	history, err := l.HistoryForTicket(ctx, "T1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 || *history[0].ToOperatorID != 37 || *history[2].ToOperatorID != 10 {
		t.Fatalf("expected newest first for T1, got %+v", history)
	}
	if !history[0].CreatedAt.After(history[1].CreatedAt) {
		t.Fatalf("expected descending created_at")
	}
}

func TestLedgerHistoryForOperatorMatchesEitherSide(t *testing.T) {
	l, _ := newLedger()
	ctx := context.Background()
	_, _ = l.Record(ctx, RecordInput{TicketID: "T1", ToOperatorID: ptr[int64](10)})
	_, _ = l.Record(ctx, RecordInput{TicketID: "T1", FromOperatorID: ptr[int64](10), ToOperatorID: ptr[int64](27)})
	_, _ = l.Record(ctx, RecordInput{TicketID: "T2", ToOperatorID: ptr[int64](37)})

	history, err := l.HistoryForOperator(ctx, 10, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records touching operator 10, got %d", len(history))
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, def, want int }{
		{0, DefaultRecentLimit, 100},
		{-5, DefaultOperatorLimit, 50},
		{20, DefaultRecentLimit, 20},
		{10000, DefaultRecentLimit, MaxHistoryLimit},
	}
	for _, tc := range cases {
		if got := ClampLimit(tc.in, tc.def); got != tc.want {
			t.Fatalf("ClampLimit(%d,%d): expected %d, got %d", tc.in, tc.def, tc.want, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if DisplayName(nil) != UnassignedLabel || DisplayName(ptr(" ")) != UnassignedLabel {
		t.Fatalf("expected empty names to render as %q", UnassignedLabel)
	}
	if DisplayName(ptr("Ana")) != "Ana" {
		t.Fatalf("expected name passthrough")
	}
}
