package service

import (
	"context"

	"github.com/rs/zerolog"
)

// ItemError is one failed element of a batch pass. The pass itself keeps
// going.
type ItemError struct {
	TicketID string `json:"ticket_id"`
	Message  string `json:"error"`
	Err      error  `json:"-"`
}

// runBatch calls fn for every item in order. A failing item is logged and
// collected; it never stops the batch. Cancellation is checked before each
// item and aborts with the context error.
func runBatch[T any](ctx context.Context, logger zerolog.Logger, items []T, key func(T) string, fn func(context.Context, T) error) ([]ItemError, error) {
	errs := []ItemError{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return errs, err
		}
		if err := fn(ctx, item); err != nil {
			id := key(item)
			logger.Error().Err(err).Str("ticket_id", id).Msg("batch item failed")
			errs = append(errs, ItemError{TicketID: id, Message: err.Error(), Err: err})
		}
	}
	return errs, nil
}
