package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gastoslab/gastos-tracker/constants"
)

// Candidate is an extracted-but-not-yet-committed transaction awaiting human
// review. Created by the extractor, possibly edited in review, then either
// committed as a Transaction or discarded.
type Candidate struct {
	Date        time.Time          `json:"date"`
	Amount      decimal.Decimal    `json:"amount"`
	Currency    constants.Currency `json:"currency"`
	Description string             `json:"description"`
	Bank        constants.Bank     `json:"bank"`
	Category    string             `json:"category"`
	Kind        constants.TxnKind  `json:"kind"`
}

// DateOnly truncates the candidate date to its calendar-day component in UTC.
func (c Candidate) DateOnly() time.Time {
	return time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// Transaction is the persisted form of a candidate, owned by a mail account's
// user. Created only through explicit commit; never auto-expired.
type Transaction struct {
	ID          uuid.UUID          `json:"id"`
	AccountID   uuid.UUID          `json:"account_id"`
	Date        time.Time          `json:"date"`
	Amount      decimal.Decimal    `json:"amount"`
	Currency    constants.Currency `json:"currency"`
	Description string             `json:"description"`
	Bank        constants.Bank     `json:"bank"`
	Category    string             `json:"category"`
	Kind        constants.TxnKind  `json:"kind"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// DateOnly truncates the transaction date to its calendar-day component in UTC.
func (t Transaction) DateOnly() time.Time {
	return time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// TrimmedDescription is the description as compared during reconciliation.
func (t Transaction) TrimmedDescription() string {
	return strings.TrimSpace(t.Description)
}
