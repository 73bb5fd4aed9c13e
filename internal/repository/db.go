package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/repository/migrations"
)

// Repositories bundles the store-backed collaborators for one dialect.
type Repositories struct {
	Transactions TransactionRepository
	Accounts     AccountRepository
	Categories   CategoryRepository
}

// OpenPostgres creates a pgx pool, wraps it for database/sql use, runs
// migrations and returns the repository set.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*Repositories, *sql.DB, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "gastos-tracker"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(ctx, db, "postgres"); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("successfully connected to database")
	return &Repositories{
		Transactions: NewPostgresTransactionRepository(db, logger),
		Accounts:     NewPostgresAccountRepository(db, logger),
		Categories:   NewPostgresCategoryRepository(db, logger),
	}, db, nil
}

// OpenSQLite opens a local SQLite store (":memory:" is supported for tests
// and one-shot runs), runs migrations and returns the repository set.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*Repositories, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := runMigrations(ctx, db, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return &Repositories{
		Transactions: NewSQLiteTransactionRepository(db, logger),
		Accounts:     NewSQLiteAccountRepository(db, logger),
		Categories:   NewSQLiteCategoryRepository(db, logger),
	}, db, nil
}

// runMigrations applies the embedded goose migrations for the dialect.
func runMigrations(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	dir := "postgres"
	if dialect == "sqlite3" {
		dir = "sqlite"
	}
	return goose.UpContext(ctx, db, dir)
}

// HealthCheck pings the store to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	return nil
}

// Close closes the store connection gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	logger.Info("closing database connection")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
}
