package ticketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const ticketPath = "/api/2.0/admin/support/tickets/{id}"

// HTTPClient talks to the ticketing platform's admin API. It never retries:
// the next scheduled reconciliation run is the retry.
type HTTPClient struct {
	client *resty.Client
}

func NewHTTPClient(baseURL, apiKey, apiSecret string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetBasicAuth(apiKey, apiSecret)
	}
	return &HTTPClient{client: client}
}

func (h *HTTPClient) GetTicket(ctx context.Context, ticketID string) (Ticket, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", ticketID).
		Get(ticketPath)
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket api request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Ticket{}, ErrTicketNotFound
	}
	if resp.IsError() {
		return Ticket{}, fmt.Errorf("ticket api error: %s: %s", resp.Status(), truncate(resp.Body(), 200))
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket %s: %w", ticketID, err)
	}
	if fields == nil {
		return Ticket{}, fmt.Errorf("decode ticket %s: empty payload", ticketID)
	}

	return Ticket{
		ID:     ticketID,
		Status: statusOf(fields),
		Fields: fields,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
