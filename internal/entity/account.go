package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/gastoslab/gastos-tracker/constants"
)

// MailAccount is a configured mail account watched for bank notifications.
// LastSyncedAt is the sync cursor: future searches need not look further back.
// Secrets are never carried on this struct; they live behind the credential
// store collaborator.
type MailAccount struct {
	ID           uuid.UUID      `json:"id"`
	Address      string         `json:"address"`
	Bank         constants.Bank `json:"bank"`
	Active       bool           `json:"active"`
	LastSyncedAt *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
