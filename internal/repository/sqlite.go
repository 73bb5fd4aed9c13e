package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/entity"
)

// SQLite stores dates and timestamps as TEXT: tx_date in dateLayout,
// everything else in RFC 3339.
const dateLayout = "2006-01-02"

type sqliteTransactionRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteTransactionRepository returns a TransactionRepository backed by
// SQLite.
func NewSQLiteTransactionRepository(db *sql.DB, logger *slog.Logger) TransactionRepository {
	return &sqliteTransactionRepo{db: db, logger: logger}
}

func (r *sqliteTransactionRepo) List(ctx context.Context) ([]entity.Transaction, error) {
	return r.ListRange(ctx, nil, nil)
}

func (r *sqliteTransactionRepo) ListRange(ctx context.Context, from, to *time.Time) ([]entity.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM transactions`
	var conds []string
	var args []any
	if from != nil {
		conds = append(conds, "tx_date >= ?")
		args = append(args, from.Format(dateLayout))
	}
	if to != nil {
		conds = append(conds, "tx_date <= ?")
		args = append(args, to.Format(dateLayout))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY tx_date, created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list transactions", "error", err)
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []entity.Transaction
	for rows.Next() {
		var (
			item      entity.Transaction
			id        string
			accountID sql.NullString
			txDate    string
			amount    string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&id, &accountID, &txDate, &amount, &item.Currency,
			&item.Description, &item.Bank, &item.Category, &item.Kind,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := fillTransaction(&item, id, accountID.String, amount); err != nil {
			return nil, err
		}
		if item.Date, err = time.Parse(dateLayout, txDate); err != nil {
			return nil, fmt.Errorf("transaction date %q: %w", txDate, err)
		}
		if item.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("transaction created_at %q: %w", createdAt, err)
		}
		if item.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("transaction updated_at %q: %w", updatedAt, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *sqliteTransactionRepo) Save(ctx context.Context, txn *entity.Transaction) error {
	query := `INSERT INTO transactions (` + txnColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var accountID any
	if txn.AccountID != uuid.Nil {
		accountID = txn.AccountID.String()
	}
	_, err := r.db.ExecContext(ctx, query,
		txn.ID.String(), accountID, txn.DateOnly().Format(dateLayout),
		txn.Amount.StringFixed(2), string(txn.Currency), txn.Description,
		string(txn.Bank), txn.Category, string(txn.Kind),
		txn.CreatedAt.UTC().Format(time.RFC3339), txn.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Error("failed to save transaction", "id", txn.ID, "error", err)
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (r *sqliteTransactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type sqliteAccountRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteAccountRepository returns an AccountRepository backed by SQLite.
func NewSQLiteAccountRepository(db *sql.DB, logger *slog.Logger) AccountRepository {
	return &sqliteAccountRepo{db: db, logger: logger}
}

func (r *sqliteAccountRepo) Create(ctx context.Context, account *entity.MailAccount) error {
	query := `INSERT INTO mail_accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	var lastSync any
	if account.LastSyncedAt != nil {
		lastSync = account.LastSyncedAt.UTC().Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx, query,
		account.ID.String(), account.Address, string(account.Bank),
		account.Active, lastSync, account.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Error("failed to create mail account", "address", account.Address, "error", err)
		return fmt.Errorf("create mail account: %w", err)
	}
	return nil
}

func (r *sqliteAccountRepo) List(ctx context.Context) ([]entity.MailAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM mail_accounts WHERE active = 1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mail accounts: %w", err)
	}
	defer rows.Close()

	var result []entity.MailAccount
	for rows.Next() {
		item, err := scanSQLiteAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *sqliteAccountRepo) GetByAddress(ctx context.Context, address string, bank constants.Bank) (*entity.MailAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM mail_accounts WHERE address = ? AND bank = ?`
	row := r.db.QueryRowContext(ctx, query, address, string(bank))
	item, err := scanSQLiteAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mail account: %w", err)
	}
	return item, nil
}

func (r *sqliteAccountRepo) AdvanceCursor(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE mail_accounts SET last_synced_at = ? WHERE id = ?`,
		syncedAt.UTC().Format(time.RFC3339), id.String())
	if err != nil {
		return fmt.Errorf("advance sync cursor: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance sync cursor: rows affected: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAccount(row rowScanner) (*entity.MailAccount, error) {
	var (
		item      entity.MailAccount
		id        string
		lastSync  sql.NullString
		createdAt string
	)
	if err := row.Scan(&id, &item.Address, &item.Bank, &item.Active, &lastSync, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("mail account id %q: %w", id, err)
	}
	item.ID = parsed
	if lastSync.Valid {
		t, err := time.Parse(time.RFC3339, lastSync.String)
		if err != nil {
			return nil, fmt.Errorf("mail account last_synced_at %q: %w", lastSync.String, err)
		}
		item.LastSyncedAt = &t
	}
	if item.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("mail account created_at %q: %w", createdAt, err)
	}
	return &item, nil
}

type sqliteCategoryRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteCategoryRepository returns a CategoryRepository backed by SQLite.
func NewSQLiteCategoryRepository(db *sql.DB, logger *slog.Logger) CategoryRepository {
	return &sqliteCategoryRepo{db: db, logger: logger}
}

func (r *sqliteCategoryRepo) EnsureDefaults(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}
	r.logger.Info("seeding default categories")
	for _, name := range constants.DefaultCategories() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	return nil
}

func (r *sqliteCategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, budget, notes FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *sqliteCategoryRepo) Add(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

func (r *sqliteCategoryRepo) SetBudget(ctx context.Context, name string, budget decimal.Decimal) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET budget = ? WHERE name = ?`, budget.StringFixed(2), name)
	if err != nil {
		return fmt.Errorf("set category budget: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set category budget: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
