package main

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary/sqlitestore"
)

// NewImportCmd creates the import command, which loads the tables into
// the SQLite database the game reads.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [dump]",
		Short: "Import declension tables into SQLite",
		Long: `Import every "Deutsch Substantiv Übersicht" table of the dump into the
derdiedas table of a SQLite database.

The database is taken from --database, database.url in the config file or
the DATABASE_URL environment variable (which may also come from .env).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImportCmd,
	}
	cmd.Flags().String("database", "", "SQLite database file")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("database") {
		cfg.Database.URL, _ = cmd.Flags().GetString("database")
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	store, err := sqlitestore.Open(cfg.Database.URL, sqlitestore.DefaultOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("Starting import", "dump", cfg.Dump.File, "database", store.Path())
	runID, err := store.BeginRun(cmd.Context(), cfg.Dump.File)
	if err != nil {
		return err
	}
	logger = logger.With("run", runID)

	stats, runErr := runImport(cmd, cfg, logger, store)

	// The run context may be cancelled by now; the bookkeeping still
	// has to land.
	if err := store.FinishRun(context.WithoutCancel(cmd.Context()), runID, stats, runErr); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("Import complete",
		"tables", humanize.Comma(stats.Matched),
		"pages", humanize.Comma(stats.Pages),
		"malformed", humanize.Comma(stats.Malformed))
	return nil
}
