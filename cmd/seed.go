package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/korjavin/gkentei/importer"
)

func init() {
	rootCmd.AddCommand(seedCmd, importSQLiteCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE...",
	Short: "Load questions and categories from JSON or YAML files",
	Long: `Load questions and categories from JSON or YAML seed files.

Every file is validated before anything is written; existing questions with
the same category and text are updated in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		seeds := make([]*importer.Seed, len(args))
		for i, path := range args {
			seed, err := importer.LoadFile(path)
			if err != nil {
				return err
			}
			seeds[i] = seed
		}

		db, err := openDB(c.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		for i, seed := range seeds {
			if _, err := importer.Apply(c.Context(), db, seed, args[i]); err != nil {
				return err
			}
		}
		return nil
	},
}

var importSQLiteCmd = &cobra.Command{
	Use:   "import-sqlite PATH",
	Short: "Import the question bank of a legacy SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		seed, err := importer.ReadSQLite(c.Context(), args[0])
		if err != nil {
			return err
		}
		slog.Info("Read legacy database",
			slog.String("path", args[0]),
			slog.Int("categories", len(seed.Categories)),
			slog.Int("questions", len(seed.Questions)))

		db, err := openDB(c.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = importer.Apply(c.Context(), db, seed, "sqlite")
		return err
	},
}
