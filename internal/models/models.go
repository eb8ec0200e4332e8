package models

import (
	"encoding/json"
	"time"
)

type ScheduleType string

const (
	ScheduleWork       ScheduleType = "work"
	ScheduleAssignment ScheduleType = "assignment"
	ScheduleAlert      ScheduleType = "alert"
)

var ScheduleTypes = []ScheduleType{ScheduleWork, ScheduleAssignment, ScheduleAlert}

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleWork, ScheduleAssignment, ScheduleAlert:
		return true
	}
	return false
}

// OperatorSchedule is one availability window. DayOfWeek is 0 for Monday
// through 6 for Sunday; EndTime "00:00" means end of day.
type OperatorSchedule struct {
	ID           int64        `json:"id"`
	PersonID     int64        `json:"person_id"`
	DayOfWeek    int          `json:"day_of_week"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	ScheduleType ScheduleType `json:"schedule_type"`
	IsActive     bool         `json:"is_active"`
}

type Operator struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Ticket struct {
	TicketID   string     `json:"ticket_id"`
	Status     string     `json:"status"`
	AssignedTo *int64     `json:"assigned_to"`
	ClosedAt   *time.Time `json:"closed_at"`
	IsClosed   bool       `json:"is_closed"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const (
	ReassignmentManual     = "manual"
	ReassignmentAutomatic  = "automatic"
	ReassignmentEscalation = "escalation"
	ReassignmentSync       = "sync"
)

type ReassignmentRecord struct {
	ID               int64     `json:"id"`
	TicketID         string    `json:"ticket_id"`
	FromOperatorID   *int64    `json:"from_operator_id"`
	FromOperatorName *string   `json:"from_operator_name"`
	ToOperatorID     *int64    `json:"to_operator_id"`
	ToOperatorName   *string   `json:"to_operator_name"`
	Reason           string    `json:"reason"`
	ReassignmentType string    `json:"reassignment_type"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

const (
	RunKindSync            = "sync"
	RunKindMigrateAssigned = "migrate_assigned"

	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

type SyncRun struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
}

// TicketUpdate is a staged mutation applied by the reconciliation passes.
// A nil Status keeps the stored status; a non-nil CloseAt only takes effect
// when the ticket has no closed_at yet.
type TicketUpdate struct {
	TicketID    string
	Status      *string
	CloseAt     *time.Time
	SetAssignee bool
	AssignedTo  *int64
}
