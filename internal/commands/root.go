package commands

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/profile"
	"github.com/gastoslab/gastos-tracker/internal/repository"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dbPath string
	var inMem bool

	rootCmd := &cobra.Command{
		Use:   "gastos",
		Short: "Personal expense tracking from bank notification emails",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "gastos.db",
		"SQLite database path (ignored when DB_URL is set)")
	rootCmd.PersistentFlags().BoolVar(&inMem, "inmem", false,
		"use an in-memory store (data is discarded on exit)")

	opts := &storeOptions{path: &dbPath, inMem: &inMem}
	rootCmd.AddCommand(newSyncCommand(opts))
	rootCmd.AddCommand(newAddCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))
	rootCmd.AddCommand(newCategoriesCommand(opts))

	return rootCmd
}

type storeOptions struct {
	path  *string
	inMem *bool
}

// app bundles the per-invocation runtime: config, logger and store.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	repos  *repository.Repositories
	db     *sql.DB
}

// openApp loads config, builds the logger and opens the store. DB_URL selects
// Postgres; otherwise a local SQLite file (or :memory: with --inmem) is used.
func openApp(ctx context.Context, opts *storeOptions) (*app, error) {
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var (
		repos *repository.Repositories
		db    *sql.DB
		err   error
	)
	switch {
	case *opts.inMem:
		repos, db, err = repository.OpenSQLite(ctx, ":memory:", logger)
	case cfg.Database.DSN != "":
		repos, db, err = repository.OpenPostgres(ctx, cfg.Database, logger)
	default:
		repos, db, err = repository.OpenSQLite(ctx, *opts.path, logger)
	}
	if err != nil {
		return nil, err
	}

	if err := repos.Categories.EnsureDefaults(ctx); err != nil {
		repository.Close(db, logger)
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, repos: repos, db: db}, nil
}

func (a *app) close() {
	repository.Close(a.db, a.logger)
}

// profileRegistry builds the bank profile table: built-in profiles plus any
// operator-supplied JSON overrides.
func (a *app) profileRegistry() (*profile.Registry, error) {
	reg := profile.DefaultRegistry()
	if err := profile.LoadFile(reg, a.cfg.Sync.ProfilePath, a.logger); err != nil {
		return nil, err
	}
	return reg, nil
}
