package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/freedom_case_2/opsync/internal/db"
	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/ticketapi"
)

var art = time.FixedZone("ART", -3*60*60)

func ptr[T any](v T) *T { return &v }

type fakeSchedules struct {
	rows []models.OperatorSchedule
	err  error
}

func (f *fakeSchedules) ListSchedules(ctx context.Context, personID int64, scheduleType models.ScheduleType, day int) ([]models.OperatorSchedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.OperatorSchedule
	for _, r := range f.rows {
		if r.PersonID == personID && r.ScheduleType == scheduleType && r.DayOfWeek == day && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSchedules) ListScheduledOperators(ctx context.Context, scheduleType models.ScheduleType) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := map[int64]bool{}
	var out []int64
	for _, r := range f.rows {
		if r.ScheduleType == scheduleType && r.IsActive && !seen[r.PersonID] {
			seen[r.PersonID] = true
			out = append(out, r.PersonID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func window(person int64, day int, start, end string, st models.ScheduleType) models.OperatorSchedule {
	return models.OperatorSchedule{PersonID: person, DayOfWeek: day, StartTime: start, EndTime: end, ScheduleType: st, IsActive: true}
}

// fakeTickets applies updates all-or-nothing, like the transactional store.
type fakeTickets struct {
	mu       sync.Mutex
	tickets  []*models.Ticket
	names    map[int64]string
	applyErr error
	setErr   error
	applied  int
}

func newFakeTickets(tickets ...models.Ticket) *fakeTickets {
	f := &fakeTickets{names: map[int64]string{}}
	for i := range tickets {
		t := tickets[i]
		f.tickets = append(f.tickets, &t)
	}
	return f
}

func (f *fakeTickets) find(id string) *models.Ticket {
	for _, t := range f.tickets {
		if t.TicketID == id {
			return t
		}
	}
	return nil
}

func (f *fakeTickets) get(id string) models.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.find(id)
}

func (f *fakeTickets) ListOpenTickets(ctx context.Context) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Ticket
	for _, t := range f.tickets {
		if t.ClosedAt == nil && t.TicketID != "" {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTickets) ListUnassignedOpenTickets(ctx context.Context) ([]models.Ticket, error) {
	open, _ := f.ListOpenTickets(ctx)
	var out []models.Ticket
	for _, t := range open {
		if t.AssignedTo == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTickets) ApplyTicketUpdates(ctx context.Context, updates []models.TicketUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	for _, u := range updates {
		t := f.find(u.TicketID)
		if t == nil {
			continue
		}
		if u.Status != nil {
			t.Status = *u.Status
		}
		if u.CloseAt != nil && t.ClosedAt == nil {
			t.ClosedAt = u.CloseAt
		}
		t.IsClosed = t.ClosedAt != nil
		if u.SetAssignee {
			t.AssignedTo = u.AssignedTo
		}
	}
	f.applied++
	return nil
}

func (f *fakeTickets) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.find(ticketID)
	if t == nil {
		return models.Ticket{}, db.ErrNotFound
	}
	return *t, nil
}

func (f *fakeTickets) SetAssignedTo(ctx context.Context, ticketID string, from, to *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	t := f.find(ticketID)
	if t == nil {
		return db.ErrNotFound
	}
	if !sameOperator(t.AssignedTo, from) {
		return db.ErrConflict
	}
	t.AssignedTo = to
	return nil
}

// racingTickets assigns a ticket to another operator right after the
// unassigned list is read, the way a concurrent manual reassign would.
type racingTickets struct {
	*fakeTickets
	ticketID string
	to       int64
}

func (r *racingTickets) ListUnassignedOpenTickets(ctx context.Context) ([]models.Ticket, error) {
	out, err := r.fakeTickets.ListUnassignedOpenTickets(ctx)
	r.mu.Lock()
	r.find(r.ticketID).AssignedTo = ptr(r.to)
	r.mu.Unlock()
	return out, err
}

func (f *fakeTickets) CountOpenByOperator(ctx context.Context) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]int{}
	for _, t := range f.tickets {
		if t.ClosedAt == nil && t.AssignedTo != nil {
			out[*t.AssignedTo]++
		}
	}
	return out, nil
}

func (f *fakeTickets) OperatorNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := map[int64]string{}
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

type fakeAPI struct {
	mu      sync.Mutex
	tickets map[string]ticketapi.Ticket
	errs    map[string]error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeAPI) GetTicket(ctx context.Context, ticketID string) (ticketapi.Ticket, error) {
	f.mu.Lock()
	f.calls++
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ticketapi.Ticket{}, ctx.Err()
		}
	}

	if err := f.errs[ticketID]; err != nil {
		return ticketapi.Ticket{}, err
	}
	t, ok := f.tickets[ticketID]
	if !ok {
		return ticketapi.Ticket{}, ticketapi.ErrTicketNotFound
	}
	return t, nil
}

func remoteTicket(id, status string, fields map[string]any) ticketapi.Ticket {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["status"] = status
	return ticketapi.Ticket{ID: id, Status: status, Fields: fields}
}

type fakeRuns struct {
	mu       sync.Mutex
	kinds    []string
	statuses []string
}

func (f *fakeRuns) CreateRun(ctx context.Context, kind string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return kind + "-run", nil
}

func (f *fakeRuns) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []models.ReassignmentRecord
	err     error
	base    time.Time
}

func (f *fakeHistory) InsertReassignment(ctx context.Context, rec models.ReassignmentRecord) (models.ReassignmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.ReassignmentRecord{}, f.err
	}
	rec.ID = int64(len(f.records) + 1)
	rec.CreatedAt = f.base.Add(time.Duration(rec.ID) * time.Second)
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeHistory) newestFirst(keep func(models.ReassignmentRecord) bool, limit int) []models.ReassignmentRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ReassignmentRecord{}
	for i := len(f.records) - 1; i >= 0; i-- {
		if keep(f.records[i]) {
			out = append(out, f.records[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (f *fakeHistory) ListReassignmentsByTicket(ctx context.Context, ticketID string) ([]models.ReassignmentRecord, error) {
	return f.newestFirst(func(r models.ReassignmentRecord) bool { return r.TicketID == ticketID }, 0), nil
}

func (f *fakeHistory) ListRecentReassignments(ctx context.Context, limit int) ([]models.ReassignmentRecord, error) {
	return f.newestFirst(func(models.ReassignmentRecord) bool { return true }, limit), nil
}

func (f *fakeHistory) ListReassignmentsByOperator(ctx context.Context, operatorID int64, limit int) ([]models.ReassignmentRecord, error) {
	return f.newestFirst(func(r models.ReassignmentRecord) bool {
		return (r.FromOperatorID != nil && *r.FromOperatorID == operatorID) ||
			(r.ToOperatorID != nil && *r.ToOperatorID == operatorID)
	}, limit), nil
}

type staticPause bool

func (p staticPause) IsPaused(context.Context) bool { return bool(p) }

var errBoom = errors.New("boom")
