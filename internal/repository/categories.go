package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/gastoslab/gastos-tracker/constants"
)

// Category is a spending category row with its monthly budget.
type Category struct {
	ID     int
	Name   string
	Budget decimal.Decimal
	Notes  string
}

// CategoryRepository manages the category catalog. EnsureDefaults seeds a
// fresh store; the "Uncategorized" sentinel is always part of the seed.
type CategoryRepository interface {
	EnsureDefaults(ctx context.Context) error
	List(ctx context.Context) ([]Category, error)
	Add(ctx context.Context, name string) error
	SetBudget(ctx context.Context, name string, budget decimal.Decimal) error
}

type postgresCategoryRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCategoryRepository returns a CategoryRepository backed by
// Postgres.
func NewPostgresCategoryRepository(db *sql.DB, logger *slog.Logger) CategoryRepository {
	return &postgresCategoryRepo{db: db, logger: logger}
}

func (r *postgresCategoryRepo) EnsureDefaults(ctx context.Context) error {
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
			`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	return nil
}

func (r *postgresCategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, budget::text, notes FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *postgresCategoryRepo) Add(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

func (r *postgresCategoryRepo) SetBudget(ctx context.Context, name string, budget decimal.Decimal) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET budget = $1 WHERE name = $2`, budget.StringFixed(2), name)
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

func scanCategories(rows *sql.Rows) ([]Category, error) {
	var result []Category
	for rows.Next() {
		var (
			item   Category
			budget string
		)
		if err := rows.Scan(&item.ID, &item.Name, &budget, &item.Notes); err != nil {
			return nil, err
		}
		b, err := decimal.NewFromString(budget)
		if err != nil {
			return nil, fmt.Errorf("category budget %q: %w", budget, err)
		}
		item.Budget = b
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
