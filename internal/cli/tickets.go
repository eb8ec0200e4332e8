package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freedom_case_2/opsync/internal/app"
	"github.com/freedom_case_2/opsync/internal/service"
)

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile open tickets with the external ticket system",
		Long: `Fetch every open ticket from the external ticket system, copy its status
and close the ones reported as closed. All changes are committed in one
transaction; a failing ticket is reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Sync.SyncOpenTickets(ctx)
				if errors.Is(err, service.ErrRunInProgress) {
					return fmt.Errorf("another run is in progress, try again later")
				}
				if perr := printJSON(res); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

// MigrateAssignedCmd returns the migrate-assigned command
func MigrateAssignedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-assigned",
		Short: "Re-derive assigned_to for open tickets from the external system",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Sync.MigrateAssignedTo(ctx)
				if errors.Is(err, service.ErrRunInProgress) {
					return fmt.Errorf("another run is in progress, try again later")
				}
				if perr := printJSON(res); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

// AutoAssignCmd returns the auto-assign command
func AutoAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto-assign",
		Short: "Assign unassigned open tickets to available operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Assignment.AutoAssign(ctx)
				if errors.Is(err, service.ErrSystemPaused) {
					return fmt.Errorf("system is paused; run `opsctl resume` first")
				}
				if perr := printJSON(res); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}
