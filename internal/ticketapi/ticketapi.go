package ticketapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrTicketNotFound = errors.New("ticket not found in external system")

// Ticket is the subset of the external ticket payload the reconciliation
// passes need. Fields keeps the raw payload for field lookups that differ
// between API versions.
type Ticket struct {
	ID     string
	Status string
	Fields map[string]any
}

type Client interface {
	GetTicket(ctx context.Context, ticketID string) (Ticket, error)
}

// AssigneeFields is the lookup order for the assignee: current API versions
// send assign_to, older ones assigned_to.
var AssigneeFields = []string{"assign_to", "assigned_to"}

// Assignee returns the first non-empty, non-zero value among fields in the
// given order. A nil result means the ticket is unassigned.
func Assignee(fields map[string]any, preference []string) (*int64, error) {
	for _, key := range preference {
		raw, ok := fields[key]
		if !ok || raw == nil {
			continue
		}
		id, present, err := toOperatorID(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		if present {
			return &id, nil
		}
	}
	return nil, nil
}

func toOperatorID(raw any) (int64, bool, error) {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" || v == "0" {
			return 0, false, nil
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid operator id %q", v)
		}
		return id, true, nil
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("invalid operator id %q", v.String())
		}
		return id, id != 0, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, false, fmt.Errorf("invalid operator id %v", v)
		}
		return int64(v), v != 0, nil
	case int:
		return int64(v), v != 0, nil
	case int64:
		return v, v != 0, nil
	case bool:
		if !v {
			return 0, false, nil
		}
	}
	return 0, false, fmt.Errorf("unsupported operator id type %T", raw)
}

func statusOf(fields map[string]any) string {
	switch v := fields["status"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
