package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/freedom_case_2/opsync/internal/app"
	"github.com/freedom_case_2/opsync/internal/models"
	"github.com/freedom_case_2/opsync/internal/pause"
)

// PauseCmd returns the pause command
func PauseCmd() *cobra.Command {
	var reason, by string

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Stop scheduled syncs and automatic assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if _, err := a.Gate.Pause(ctx, reason, by); err != nil {
					return fmt.Errorf("failed to pause: %w", err)
				}
				writeStatus(os.Stdout, a.Gate.Status(ctx))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the system is paused")
	cmd.Flags().StringVar(&by, "by", "", "Who is pausing")
	return cmd
}

// ResumeCmd returns the resume command
func ResumeCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume scheduled syncs and automatic assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if _, err := a.Gate.Resume(ctx, by); err != nil {
					return fmt.Errorf("failed to resume: %w", err)
				}
				writeStatus(os.Stdout, a.Gate.Status(ctx))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "Who is resuming")
	return cmd
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pause state and the latest reconciliation run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				writeStatus(os.Stdout, a.Gate.Status(ctx))

				run, err := a.Store.GetLatestRun(ctx, "")
				if err != nil {
					fmt.Println("Last run: (none)")
					return nil //nolint:nilerr // no runs yet is not an error
				}
				fmt.Printf("Last run: %s %s started %s\n", run.Kind, runColor(run.Status), run.StartedAt.Format(time.RFC3339))
				if len(run.Summary) > 0 {
					fmt.Printf("   %s\n", string(run.Summary))
				}
				return nil
			})
		},
	}
}

func writeStatus(w io.Writer, st pause.Status) {
	if st.Paused {
		fmt.Fprintf(w, "System: %s\n", color.New(color.FgRed, color.Bold).Sprint(st.Status))
		if st.Reason != nil {
			fmt.Fprintf(w, "   reason: %s\n", *st.Reason)
		}
		if st.PausedBy != nil && st.PausedAt != nil {
			fmt.Fprintf(w, "   by %s at %s\n", *st.PausedBy, st.PausedAt.Format(time.RFC3339))
		}
		return
	}
	fmt.Fprintf(w, "System: %s\n", color.New(color.FgGreen).Sprint(st.Status))
	if st.ResumedBy != nil && st.ResumedAt != nil {
		fmt.Fprintf(w, "   resumed by %s at %s\n", *st.ResumedBy, st.ResumedAt.Format(time.RFC3339))
	}
}

func runColor(status string) string {
	switch status {
	case models.RunStatusSuccess:
		return color.New(color.FgGreen).Sprint(status)
	case models.RunStatusFailed:
		return color.New(color.FgRed).Sprint(status)
	}
	return color.New(color.FgYellow).Sprint(status)
}
