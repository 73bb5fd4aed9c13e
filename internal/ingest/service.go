package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/credentials"
	"github.com/gastoslab/gastos-tracker/internal/entity"
	"github.com/gastoslab/gastos-tracker/internal/mailbox"
	"github.com/gastoslab/gastos-tracker/internal/parse"
	"github.com/gastoslab/gastos-tracker/internal/profile"
	"github.com/gastoslab/gastos-tracker/internal/reconcile"
	"github.com/gastoslab/gastos-tracker/internal/repository"
)

// Mailbox fetches raw notification messages for one account. Satisfied by
// *mailbox.Connector; a fake stands in during tests.
type Mailbox interface {
	Fetch(ctx context.Context, address, secret string, q mailbox.Query) ([]mailbox.RawMessage, error)
}

// DecodeFunc turns a raw message into a plain-text body.
type DecodeFunc func(mailbox.RawMessage) (string, error)

// SyncResult reports one account sync run. Pending holds the candidates that
// survived reconciliation; they are persisted only through Commit.
type SyncResult struct {
	State           constants.SyncState
	Pending         []*entity.Candidate
	MessagesSeen    int
	MessagesSkipped int
	Duplicates      int
	CursorAdvanced  bool
}

// Service runs the per-account ingestion pipeline: fetch, decode, extract,
// reconcile. It never persists candidates on its own.
type Service struct {
	mail       Mailbox
	decode     DecodeFunc
	extractor  *parse.Extractor
	reconciler *reconcile.Reconciler
	secrets    credentials.Store
	profiles   *profile.Registry
	txns       repository.TransactionRepository
	accounts   repository.AccountRepository
	logger     *slog.Logger
	nowFn      func() time.Time
}

// NewService wires the pipeline collaborators.
func NewService(mail Mailbox, secrets credentials.Store, profiles *profile.Registry,
	txns repository.TransactionRepository, accounts repository.AccountRepository,
	logger *slog.Logger) *Service {
	return &Service{
		mail:       mail,
		decode:     mailbox.DecodeBody,
		extractor:  parse.NewExtractor(logger),
		reconciler: reconcile.NewReconciler(logger),
		secrets:    secrets,
		profiles:   profiles,
		txns:       txns,
		accounts:   accounts,
		logger:     logger,
		nowFn:      time.Now,
	}
}

// WithDecoder overrides the message decoder.
func (s *Service) WithDecoder(decode DecodeFunc) *Service {
	s.decode = decode
	return s
}

// WithClock overrides the processing clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	s.extractor.WithClock(now)
	return s
}

// Sync runs one ingestion pass for the account. The sync cursor advances when
// the connection and fetch succeed, even if individual messages fail to
// decode or extract; those are logged, counted and skipped.
func (s *Service) Sync(ctx context.Context, account *entity.MailAccount, lookbackDays int) (*SyncResult, error) {
	result := &SyncResult{State: constants.SyncStateIdle}

	if err := common.ValidateLookback(lookbackDays); err != nil {
		result.State = constants.SyncStateFailed
		return result, err
	}

	prof := s.profiles.Get(account.Bank)
	if prof == nil {
		result.State = constants.SyncStateFailed
		return result, fmt.Errorf("%w: no profile for bank %q", common.ErrNotFound, account.Bank)
	}

	secret, err := s.secrets.Secret(ctx, account.Address)
	if err != nil {
		result.State = constants.SyncStateFailed
		return result, err
	}

	// Snapshot the store before the run; reconciliation compares against
	// this point-in-time view plus anything accepted earlier in the batch.
	stored, err := s.txns.List(ctx)
	if err != nil {
		result.State = constants.SyncStateFailed
		return result, &common.PersistenceError{Op: "snapshot", Cause: err}
	}

	started := s.nowFn()
	since := started.AddDate(0, 0, -lookbackDays)
	if account.LastSyncedAt != nil && account.LastSyncedAt.After(since) {
		since = *account.LastSyncedAt
	}

	result.State = constants.SyncStateConnecting
	s.logger.Info("starting sync",
		"address", account.Address, "bank", account.Bank, "since", since)

	messages, err := s.mail.Fetch(ctx, account.Address, secret, mailbox.Query{
		Sender:  prof.SenderAddress,
		Subject: prof.SubjectFilter,
		Since:   since,
	})
	if err != nil {
		result.State = constants.SyncStateFailed
		return result, err
	}
	result.State = constants.SyncStateFetching
	result.MessagesSeen = len(messages)

	result.State = constants.SyncStateProcessing
	for _, msg := range messages {
		cand, err := s.processMessage(msg, prof)
		if err != nil {
			result.MessagesSkipped++
			s.logger.Warn("skipping message",
				"address", account.Address, "seq", msg.SeqNum, "error", err)
			continue
		}
		if s.reconciler.IsDuplicate(cand, stored) || isPendingDuplicate(cand, result.Pending) {
			result.Duplicates++
			s.logger.Debug("dropping duplicate candidate",
				"date", cand.DateOnly(), "amount", cand.Amount, "description", cand.Description)
			continue
		}
		result.Pending = append(result.Pending, cand)
	}

	// The window was fully covered once fetch succeeded, so the cursor moves
	// even when some messages were skipped.
	if err := s.accounts.AdvanceCursor(ctx, account.ID, started); err != nil {
		result.State = constants.SyncStatePartiallyFailed
		return result, &common.PersistenceError{Op: "advance cursor", Cause: err}
	}
	result.CursorAdvanced = true

	if result.MessagesSkipped > 0 {
		result.State = constants.SyncStatePartiallyFailed
	} else {
		result.State = constants.SyncStateDone
	}
	s.logger.Info("sync finished",
		"address", account.Address, "state", result.State,
		"seen", result.MessagesSeen, "skipped", result.MessagesSkipped,
		"duplicates", result.Duplicates, "pending", len(result.Pending))
	return result, nil
}

func (s *Service) processMessage(msg mailbox.RawMessage, prof *profile.BankProfile) (*entity.Candidate, error) {
	body, err := s.decode(msg)
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, &common.DecodeError{Cause: errors.New("empty body")}
	}
	cand, err := s.extractor.Extract(body, prof, msg.Received)
	if err != nil {
		return nil, err
	}
	return cand, nil
}

// isPendingDuplicate guards against the same notification appearing twice in
// one batch before anything is persisted.
func isPendingDuplicate(cand *entity.Candidate, pending []*entity.Candidate) bool {
	for _, p := range pending {
		if p.DateOnly().Equal(cand.DateOnly()) &&
			p.Amount.Equal(cand.Amount) &&
			p.Description == cand.Description {
			return true
		}
	}
	return false
}

// Commit persists reviewed candidates for the account. Failures leave the
// remaining candidates pending; already-saved ones stay saved.
func (s *Service) Commit(ctx context.Context, account *entity.MailAccount, candidates []*entity.Candidate) (int, error) {
	saved := 0
	for _, cand := range candidates {
		txn := repository.NewTransaction(cand, account.ID, s.nowFn())
		if err := s.txns.Save(ctx, txn); err != nil {
			return saved, &common.PersistenceError{Op: "save transaction", Cause: err}
		}
		saved++
	}
	s.logger.Info("committed candidates", "address", account.Address, "saved", saved)
	return saved, nil
}

// AddManual persists a hand-entered transaction. Manual entries do not pass
// through the reconciler.
func (s *Service) AddManual(ctx context.Context, cand *entity.Candidate) (*entity.Transaction, error) {
	if cand.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", common.ErrInvalidInput)
	}
	if cand.Category == "" {
		cand.Category = constants.CategoryUncategorized
	}
	if cand.Kind == "" {
		cand.Kind = constants.KindActual
	}
	if cand.Currency == "" {
		cand.Currency = constants.CurrencyPEN
	}
	txn := repository.NewTransaction(cand, uuid.Nil, s.nowFn())
	if err := s.txns.Save(ctx, txn); err != nil {
		return nil, &common.PersistenceError{Op: "save transaction", Cause: err}
	}
	return txn, nil
}
