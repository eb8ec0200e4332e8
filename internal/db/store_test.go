package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedom_case_2/opsync/internal/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate(ctx))
	_, err = store.Pool.Exec(ctx, `TRUNCATE operators, operator_schedule, tickets, ticket_reassignment_history, sync_runs RESTART IDENTITY`)
	require.NoError(t, err)
	return store
}

func seedTicket(t *testing.T, store *Store, ticketID string, assignedTo *int64) {
	t.Helper()
	_, err := store.Pool.Exec(context.Background(),
		`INSERT INTO tickets (ticket_id, status, assigned_to) VALUES ($1, 'new', $2)`, ticketID, assignedTo)
	require.NoError(t, err)
}

func TestReplaceAndListSchedulesIntegration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	schedules := []models.OperatorSchedule{
		{PersonID: 10, DayOfWeek: 0, StartTime: "08:00", EndTime: "16:00", ScheduleType: models.ScheduleAssignment, IsActive: true},
		{PersonID: 10, DayOfWeek: 0, StartTime: "17:00", EndTime: "00:00", ScheduleType: models.ScheduleAssignment, IsActive: true},
		{PersonID: 10, DayOfWeek: 0, StartTime: "08:00", EndTime: "17:00", ScheduleType: models.ScheduleWork, IsActive: true},
		{PersonID: 27, DayOfWeek: 1, StartTime: "10:00", EndTime: "17:00", ScheduleType: models.ScheduleAssignment, IsActive: false},
	}
	n, err := store.ReplaceSchedules(ctx, models.ScheduleTypes, schedules)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := store.ListSchedules(ctx, 10, models.ScheduleAssignment, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "08:00", got[0].StartTime)
	assert.Equal(t, "00:00", got[1].EndTime)

	inactive, err := store.ListSchedules(ctx, 27, models.ScheduleAssignment, 1)
	require.NoError(t, err)
	assert.Empty(t, inactive)

	ops, err := store.ListScheduledOperators(ctx, models.ScheduleAssignment)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ops)

	// Replacing only "work" keeps assignment windows.
	_, err = store.ReplaceSchedules(ctx, []models.ScheduleType{models.ScheduleWork}, nil)
	require.NoError(t, err)
	got, err = store.ListSchedules(ctx, 10, models.ScheduleAssignment, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestApplyTicketUpdatesKeepsClosedInvariantIntegration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	seedTicket(t, store, "T1", nil)
	seedTicket(t, store, "T2", nil)

	resolved := "resolved"
	open := "in progress"
	first := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.ApplyTicketUpdates(ctx, []models.TicketUpdate{
		{TicketID: "T1", Status: &resolved, CloseAt: &first},
		{TicketID: "T2", Status: &open},
	}))

	t1, err := store.GetTicket(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, t1.ClosedAt)
	assert.True(t, t1.IsClosed)
	assert.Equal(t, "resolved", t1.Status)

	// A second close keeps the original closed_at.
	later := first.Add(time.Hour)
	require.NoError(t, store.ApplyTicketUpdates(ctx, []models.TicketUpdate{{TicketID: "T1", CloseAt: &later}}))
	t1, err = store.GetTicket(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, t1.ClosedAt.Equal(first))

	t2, err := store.GetTicket(ctx, "T2")
	require.NoError(t, err)
	assert.Nil(t, t2.ClosedAt)
	assert.False(t, t2.IsClosed)

	openTickets, err := store.ListOpenTickets(ctx)
	require.NoError(t, err)
	require.Len(t, openTickets, 1)
	assert.Equal(t, "T2", openTickets[0].TicketID)
}

func TestReassignmentHistoryIntegration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ten, twentySeven := int64(10), int64(27)
	for _, rec := range []models.ReassignmentRecord{
		{TicketID: "T1", ToOperatorID: &ten, ReassignmentType: "automatic", CreatedBy: "system"},
		{TicketID: "T1", FromOperatorID: &ten, ToOperatorID: &twentySeven, ReassignmentType: "manual", CreatedBy: "admin"},
		{TicketID: "T2", ToOperatorID: &twentySeven, ReassignmentType: "manual", CreatedBy: "admin"},
	} {
		_, err := store.InsertReassignment(ctx, rec)
		require.NoError(t, err)
	}

	history, err := store.ListReassignmentsByTicket(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "manual", history[0].ReassignmentType)

	recent, err := store.ListRecentReassignments(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	byOperator, err := store.ListReassignmentsByOperator(ctx, 10, 50)
	require.NoError(t, err)
	assert.Len(t, byOperator, 2)
}

func TestRunsIntegration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.CreateRun(ctx, models.RunKindSync)
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, id, models.RunStatusSuccess, []byte(`{"total_checked":1}`)))

	run, err := store.GetLatestRun(ctx, models.RunKindSync)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.NotNil(t, run.FinishedAt)

	_, err = store.GetLatestRun(ctx, models.RunKindMigrateAssigned)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOperatorsIntegration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertOperators(ctx, []models.Operator{
		{ID: 10, Name: "Ana", IsActive: true},
		{ID: 27, Name: "Bruno", IsActive: true},
	}))
	require.NoError(t, store.UpsertOperators(ctx, []models.Operator{{ID: 10, Name: "Ana Paula", IsActive: false}}))

	names, err := store.OperatorNames(ctx, []int64{10, 27, 99})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{10: "Ana Paula", 27: "Bruno"}, names)

	names, err = store.OperatorNames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSetAssignedToComparesCurrentAssigneeIntegration(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	seedTicket(t, store, "T1", nil)

	ten, twentySeven := int64(10), int64(27)
	require.NoError(t, store.SetAssignedTo(ctx, "T1", nil, &ten))

	// A writer that still believes T1 is unassigned loses.
	err := store.SetAssignedTo(ctx, "T1", nil, &twentySeven)
	assert.ErrorIs(t, err, ErrConflict)

	t1, err := store.GetTicket(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, t1.AssignedTo)
	assert.Equal(t, ten, *t1.AssignedTo)

	require.NoError(t, store.SetAssignedTo(ctx, "T1", &ten, nil))
	assert.ErrorIs(t, store.SetAssignedTo(ctx, "missing", nil, &ten), ErrNotFound)
}

func TestPingIntegration(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.Ping(context.Background()))
}
