package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gastoslab/gastos-tracker/internal/entity"
)

// TransactionRepository is the persistence collaborator for stored
// transactions. List feeds the reconciler's point-in-time snapshot; Save is
// invoked only after explicit commit (accepted candidate or manual entry).
type TransactionRepository interface {
	List(ctx context.Context) ([]entity.Transaction, error)
	ListRange(ctx context.Context, from, to *time.Time) ([]entity.Transaction, error)
	Save(ctx context.Context, txn *entity.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const txnColumns = "id, account_id, tx_date, amount, currency, description, bank, category, kind, created_at, updated_at"

type postgresTransactionRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTransactionRepository returns a TransactionRepository backed by
// Postgres.
func NewPostgresTransactionRepository(db *sql.DB, logger *slog.Logger) TransactionRepository {
	return &postgresTransactionRepo{db: db, logger: logger}
}

func (r *postgresTransactionRepo) List(ctx context.Context) ([]entity.Transaction, error) {
	return r.ListRange(ctx, nil, nil)
}

func (r *postgresTransactionRepo) ListRange(ctx context.Context, from, to *time.Time) ([]entity.Transaction, error) {
	query := `SELECT id, account_id, tx_date, amount::text, currency, description, bank, category, kind, created_at, updated_at FROM transactions`
	var conds []string
	var args []any
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("tx_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("tx_date <= $%d", len(args)))
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
			amount    string
		)
		if err := rows.Scan(&id, &accountID, &item.Date, &amount, &item.Currency,
			&item.Description, &item.Bank, &item.Category, &item.Kind,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if err := fillTransaction(&item, id, accountID.String, amount); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresTransactionRepo) Save(ctx context.Context, txn *entity.Transaction) error {
	query := `INSERT INTO transactions (` + txnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	var accountID any
	if txn.AccountID != uuid.Nil {
		accountID = txn.AccountID.String()
	}
	_, err := r.db.ExecContext(ctx, query,
		txn.ID.String(), accountID, txn.DateOnly(), txn.Amount.StringFixed(2),
		string(txn.Currency), txn.Description, string(txn.Bank), txn.Category,
		string(txn.Kind), txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to save transaction", "id", txn.ID, "error", err)
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

func (r *postgresTransactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id.String())
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

// fillTransaction finishes scanning shared string columns into typed fields.
func fillTransaction(item *entity.Transaction, id, accountID, amount string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("transaction id %q: %w", id, err)
	}
	item.ID = parsed
	if accountID != "" {
		aid, err := uuid.Parse(accountID)
		if err != nil {
			return fmt.Errorf("transaction account id %q: %w", accountID, err)
		}
		item.AccountID = aid
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("transaction amount %q: %w", amount, err)
	}
	item.Amount = amt
	return nil
}

// NewTransaction builds a stored transaction from a reviewed candidate.
func NewTransaction(c *entity.Candidate, accountID uuid.UUID, now time.Time) *entity.Transaction {
	return &entity.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Date:        c.DateOnly(),
		Amount:      c.Amount,
		Currency:    c.Currency,
		Description: strings.TrimSpace(c.Description),
		Bank:        c.Bank,
		Category:    c.Category,
		Kind:        c.Kind,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}
