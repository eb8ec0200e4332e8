package ticketapi

import (
	"context"
	"strconv"

	"github.com/freedom_case_2/opsync/internal/utils"
)

// MockClient answers deterministically from the ticket id so local runs
// without a configured API still exercise every reconciliation branch.
type MockClient struct {
	Operators []int64
}

func (m MockClient) GetTicket(ctx context.Context, ticketID string) (Ticket, error) {
	if err := ctx.Err(); err != nil {
		return Ticket{}, err
	}
	h := utils.HashStringToUint64(ticketID)

	statuses := []string{"open", "in progress", "waiting", "resolved", "closed"}
	status := statuses[int(h%uint64(len(statuses)))]

	fields := map[string]any{"status": status}
	if len(m.Operators) > 0 && (h/7)%3 != 0 {
		op := m.Operators[int((h/11)%uint64(len(m.Operators)))]
		fields["assign_to"] = strconv.FormatInt(op, 10)
	}

	return Ticket{ID: ticketID, Status: status, Fields: fields}, nil
}
