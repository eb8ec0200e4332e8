package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/freedom_case_2/opsync/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opsctl",
		Short: "Administer the opsync service",
		Long: `opsctl runs the reconciliation passes, toggles the system pause and
loads operator schedules against the same database and pause state as the
server. Configuration comes from .env and the environment.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(cli.VerboseFlag(), "verbose", "v", false, "Log at LOG_LEVEL instead of warnings only")

	rootCmd.AddCommand(cli.SyncCmd())
	rootCmd.AddCommand(cli.MigrateAssignedCmd())
	rootCmd.AddCommand(cli.AutoAssignCmd())

	rootCmd.AddCommand(cli.PauseCmd())
	rootCmd.AddCommand(cli.ResumeCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	rootCmd.AddCommand(cli.ScheduleCmd())
	rootCmd.AddCommand(cli.MigrateSchemaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
