package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/entity"
)

// ErrAccountNotFound is returned when no mail account matches the lookup.
var ErrAccountNotFound = errors.New("mail account not found")

// AccountRepository manages configured mail accounts and their sync cursors.
// AdvanceCursor is called only after a batch completes without a
// connection-level failure; partially failed batches leave the cursor alone
// so the next run re-covers the same window.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.MailAccount) error
	List(ctx context.Context) ([]entity.MailAccount, error)
	GetByAddress(ctx context.Context, address string, bank constants.Bank) (*entity.MailAccount, error)
	AdvanceCursor(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
}

const accountColumns = "id, address, bank, active, last_synced_at, created_at"

type postgresAccountRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAccountRepository returns an AccountRepository backed by
// Postgres.
func NewPostgresAccountRepository(db *sql.DB, logger *slog.Logger) AccountRepository {
	return &postgresAccountRepo{db: db, logger: logger}
}

func (r *postgresAccountRepo) Create(ctx context.Context, account *entity.MailAccount) error {
	query := `INSERT INTO mail_accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		account.ID.String(), account.Address, string(account.Bank),
		account.Active, account.LastSyncedAt, account.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create mail account", "address", account.Address, "error", err)
		return fmt.Errorf("create mail account: %w", err)
	}
	return nil
}

func (r *postgresAccountRepo) List(ctx context.Context) ([]entity.MailAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM mail_accounts WHERE active ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mail accounts: %w", err)
	}
	defer rows.Close()

	var result []entity.MailAccount
	for rows.Next() {
		var (
			item     entity.MailAccount
			id       string
			lastSync sql.NullTime
		)
		if err := rows.Scan(&id, &item.Address, &item.Bank, &item.Active, &lastSync, &item.CreatedAt); err != nil {
			return nil, err
		}
		if err := fillAccount(&item, id, lastSync); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresAccountRepo) GetByAddress(ctx context.Context, address string, bank constants.Bank) (*entity.MailAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM mail_accounts WHERE address = $1 AND bank = $2`
	var (
		item     entity.MailAccount
		id       string
		lastSync sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, address, string(bank)).
		Scan(&id, &item.Address, &item.Bank, &item.Active, &lastSync, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mail account: %w", err)
	}
	if err := fillAccount(&item, id, lastSync); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresAccountRepo) AdvanceCursor(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE mail_accounts SET last_synced_at = $1 WHERE id = $2`,
		syncedAt.UTC(), id.String())
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

func fillAccount(item *entity.MailAccount, id string, lastSync sql.NullTime) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("mail account id %q: %w", id, err)
	}
	item.ID = parsed
	if lastSync.Valid {
		t := lastSync.Time
		item.LastSyncedAt = &t
	}
	return nil
}

// NewMailAccount builds a mail account ready for Create.
func NewMailAccount(address string, bank constants.Bank, now time.Time) *entity.MailAccount {
	return &entity.MailAccount{
		ID:        uuid.New(),
		Address:   address,
		Bank:      bank,
		Active:    true,
		CreatedAt: now.UTC(),
	}
}
