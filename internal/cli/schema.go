package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/freedom_case_2/opsync/internal/app"
	"github.com/freedom_case_2/opsync/internal/db"
)

// MigrateSchemaCmd returns the migrate-schema command
func MigrateSchemaCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate-schema",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Print(db.SchemaSQL())
				return nil
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Store.Migrate(ctx); err != nil {
					return fmt.Errorf("failed to apply schema: %w", err)
				}
				fmt.Printf("%s schema applied\n", color.New(color.FgGreen).Sprint("✓"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the schema instead of applying it")
	return cmd
}
