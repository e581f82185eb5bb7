package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vesta-core/internal/infrastructure/database"
)

const migrateTimeout = 30 * time.Second

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
	Long: `Inspect and change the schema of the database at database.path.

serve applies pending migrations on start; these commands are for checking
a database before an upgrade or undoing the latest migration.`,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			applied, pending, err := db.GetMigrationStatus(ctx)
			if err != nil {
				return err
			}
			printMigrationStatus(cmd.OutOrStdout(), applied, pending)
			return nil
		})
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			green.Fprintln(cmd.OutOrStdout(), "Schema up to date") //nolint:errcheck // terminal output
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			applied, _, err := db.GetMigrationStatus(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				yellow.Fprintln(cmd.OutOrStdout(), "Nothing to roll back") //nolint:errcheck // terminal output
				return nil
			}
			if err := db.MigrateDown(ctx); err != nil {
				return err
			}
			green.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", applied[len(applied)-1].Version) //nolint:errcheck // terminal output
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd, migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withDatabase opens the configured database, runs fn and closes it again.
func withDatabase(cmd *cobra.Command, fn func(context.Context, *database.DB) error) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Could not load configuration", err.Error())
	}
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Could not open database", err.Error())
	}
	defer db.Close() //nolint:errcheck // read-mostly, nothing to flush

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := fn(ctx, db); err != nil {
		return printError(cmd.ErrOrStderr(), "Migration failed", err.Error())
	}
	return nil
}

func printMigrationStatus(w io.Writer, applied []database.MigrationRecord, pending []database.Migration) {
	cyan.Fprintf(w, "Applied (%d):\n", len(applied)) //nolint:errcheck // terminal output
	for _, m := range applied {
		fmt.Fprintf(w, "  %s  %s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
	}
	cyan.Fprintf(w, "Pending (%d):\n", len(pending)) //nolint:errcheck // terminal output
	for _, m := range pending {
		yellow.Fprintf(w, "  %s  %s\n", m.Version, m.Name) //nolint:errcheck // terminal output
	}
}
