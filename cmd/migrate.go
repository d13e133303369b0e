package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/korjavin/gkentei/database/migrations"
)

var downSteps int

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(c *cobra.Command, _ []string) error {
		db, err := openDB(c.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		slog.Info("Running migrations")
		if err := db.Migrate(); err != nil {
			return err
		}
		slog.Info("Migrations completed successfully")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	RunE: func(c *cobra.Command, _ []string) error {
		db, err := openDB(c.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		slog.Info("Rolling back migrations", slog.Int("steps", downSteps))
		return migrations.RunMigrationsDown(db.Pool(), downSteps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(c *cobra.Command, _ []string) error {
		db, err := openDB(c.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		version, dirty, err := migrations.Version(db.Pool())
		if err != nil {
			return err
		}
		c.Printf("version %d dirty=%t\n", version, dirty)
		return nil
	},
}
