package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/credentials"
	"github.com/gastoslab/gastos-tracker/internal/entity"
	"github.com/gastoslab/gastos-tracker/internal/mailbox"
	"github.com/gastoslab/gastos-tracker/internal/profile"
	"github.com/gastoslab/gastos-tracker/internal/repository"
)

type fakeMailbox struct {
	messages []mailbox.RawMessage
	err      error
	query    mailbox.Query
	calls    int
}

func (f *fakeMailbox) Fetch(_ context.Context, _, _ string, q mailbox.Query) ([]mailbox.RawMessage, error) {
	f.calls++
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func plainMessage(seq uint32, received time.Time, body string) mailbox.RawMessage {
	raw := "Content-Type: text/plain; charset=utf-8\r\n\r\n" + body
	return mailbox.RawMessage{SeqNum: seq, Received: received, Raw: []byte(raw)}
}

func consumoBody(amount, merchant, date string) string {
	return fmt.Sprintf("Realizaste un consumo por S/ %s en <b>%s</b> el %s con tu Tarjeta de Crédito BCP.",
		amount, merchant, date)
}

type syncFixture struct {
	service *Service
	mail    *fakeMailbox
	repos   *repository.Repositories
	account *entity.MailAccount
}

func newSyncFixture(t *testing.T, mail *fakeMailbox) *syncFixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repos, db, err := repository.OpenSQLite(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	account := repository.NewMailAccount("person@gmail.com", constants.BankBCP, time.Now())
	require.NoError(t, repos.Accounts.Create(ctx, account))

	secrets := credentials.NewStaticStore(map[string]string{"person@gmail.com": "app-password"})
	service := NewService(mail, secrets, profile.DefaultRegistry(),
		repos.Transactions, repos.Accounts, logger)

	return &syncFixture{service: service, mail: mail, repos: repos, account: account}
}

func (f *syncFixture) reloadAccount(t *testing.T) *entity.MailAccount {
	t.Helper()
	account, err := f.repos.Accounts.GetByAddress(context.Background(), f.account.Address, f.account.Bank)
	require.NoError(t, err)
	return account
}

func TestSyncHappyPath(t *testing.T) {
	received := time.Date(2025, 2, 8, 21, 0, 0, 0, time.UTC)
	mail := &fakeMailbox{messages: []mailbox.RawMessage{
		plainMessage(1, received, consumoBody("90.00", "SUSHI POP", "08/02/2025")),
		plainMessage(2, received, consumoBody("45.50", "WONG", "08/02/2025")),
	}}
	f := newSyncFixture(t, mail)

	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.NoError(t, err)

	assert.Equal(t, constants.SyncStateDone, result.State)
	assert.Equal(t, 2, result.MessagesSeen)
	assert.Equal(t, 0, result.MessagesSkipped)
	require.Len(t, result.Pending, 2)
	assert.Equal(t, "SUSHI POP", result.Pending[0].Description)
	assert.True(t, result.CursorAdvanced)
	assert.NotNil(t, f.reloadAccount(t).LastSyncedAt)

	// Search criteria carry the bank profile's sender and subject.
	assert.Equal(t, "notificaciones@notificacionesbcp.com.pe", mail.query.Sender)
	assert.NotEmpty(t, mail.query.Subject)
	assert.False(t, mail.query.Since.IsZero())
}

func TestSyncPartialBatchStillAdvancesCursor(t *testing.T) {
	received := time.Date(2025, 2, 8, 21, 0, 0, 0, time.UTC)
	var messages []mailbox.RawMessage
	for i := 0; i < 8; i++ {
		messages = append(messages, plainMessage(uint32(i+1), received,
			consumoBody(fmt.Sprintf("%d.00", 10+i), fmt.Sprintf("TIENDA %d", i), "08/02/2025")))
	}
	// Two bodies with no recoverable amount.
	messages = append(messages,
		plainMessage(9, received, "Gracias por usar la banca móvil BCP."),
		plainMessage(10, received, "Tu estado de cuenta está disponible."))

	f := newSyncFixture(t, &fakeMailbox{messages: messages})
	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.NoError(t, err)

	assert.Equal(t, constants.SyncStatePartiallyFailed, result.State)
	assert.Equal(t, 10, result.MessagesSeen)
	assert.Equal(t, 2, result.MessagesSkipped)
	assert.Len(t, result.Pending, 8)
	assert.True(t, result.CursorAdvanced)
	assert.NotNil(t, f.reloadAccount(t).LastSyncedAt)
}

func TestSyncConnectionFailureLeavesCursor(t *testing.T) {
	connErr := &common.ConnectionError{Op: "dial", Cause: errors.New("refused")}
	f := newSyncFixture(t, &fakeMailbox{err: connErr})

	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.Error(t, err)
	assert.True(t, common.IsConnection(err))
	assert.Equal(t, constants.SyncStateFailed, result.State)
	assert.False(t, result.CursorAdvanced)
	assert.Nil(t, f.reloadAccount(t).LastSyncedAt)
}

func TestSyncAuthPolicyFailure(t *testing.T) {
	authErr := &common.AuthPolicyError{Provider: "gmail", Remediation: "use an app password"}
	f := newSyncFixture(t, &fakeMailbox{err: authErr})

	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.Error(t, err)
	assert.True(t, common.IsAuthPolicy(err))
	assert.Equal(t, constants.SyncStateFailed, result.State)
	assert.Nil(t, f.reloadAccount(t).LastSyncedAt)
}

func TestSyncDropsStoredDuplicates(t *testing.T) {
	received := time.Date(2025, 2, 8, 21, 0, 0, 0, time.UTC)
	mail := &fakeMailbox{messages: []mailbox.RawMessage{
		plainMessage(1, received, consumoBody("90.00", "SUSHI POP", "08/02/2025")),
	}}
	f := newSyncFixture(t, mail)

	stored := repository.NewTransaction(&entity.Candidate{
		Date:        time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("90.00"),
		Currency:    constants.CurrencyPEN,
		Description: "SUSHI POP",
		Bank:        constants.BankBCP,
		Category:    constants.CategoryUncategorized,
		Kind:        constants.KindActual,
	}, f.account.ID, time.Now())
	require.NoError(t, f.repos.Transactions.Save(context.Background(), stored))

	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.NoError(t, err)

	assert.Equal(t, constants.SyncStateDone, result.State)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, result.Pending)
}

func TestSyncDropsInBatchDuplicates(t *testing.T) {
	received := time.Date(2025, 2, 8, 21, 0, 0, 0, time.UTC)
	body := consumoBody("90.00", "SUSHI POP", "08/02/2025")
	mail := &fakeMailbox{messages: []mailbox.RawMessage{
		plainMessage(1, received, body),
		plainMessage(2, received, body),
	}}
	f := newSyncFixture(t, mail)

	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.NoError(t, err)
	assert.Len(t, result.Pending, 1)
	assert.Equal(t, 1, result.Duplicates)
}

func TestSyncRejectsBadLookback(t *testing.T) {
	f := newSyncFixture(t, &fakeMailbox{})

	for _, days := range []int{0, -1, common.MaxLookbackDays + 1} {
		result, err := f.service.Sync(context.Background(), f.account, days)
		require.Error(t, err, "days=%d", days)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		assert.Equal(t, constants.SyncStateFailed, result.State)
	}
	assert.Zero(t, f.mail.calls)
}

func TestSyncMissingSecret(t *testing.T) {
	mail := &fakeMailbox{}
	f := newSyncFixture(t, mail)
	f.service.secrets = credentials.NewStaticStore(nil)

	result, err := f.service.Sync(context.Background(), f.account, 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSecretNotFound)
	assert.Equal(t, constants.SyncStateFailed, result.State)
	assert.Zero(t, mail.calls)
}

func TestCommitPersistsPending(t *testing.T) {
	f := newSyncFixture(t, &fakeMailbox{})
	ctx := context.Background()

	pending := []*entity.Candidate{
		{
			Date:        time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.RequireFromString("90.00"),
			Currency:    constants.CurrencyPEN,
			Description: "SUSHI POP",
			Bank:        constants.BankBCP,
			Category:    constants.CategoryUncategorized,
			Kind:        constants.KindActual,
		},
	}
	saved, err := f.service.Commit(ctx, f.account, pending)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	stored, err := f.repos.Transactions.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, f.account.ID, stored[0].AccountID)
}

func TestAddManual(t *testing.T) {
	f := newSyncFixture(t, &fakeMailbox{})
	ctx := context.Background()

	_, err := f.service.AddManual(ctx, &entity.Candidate{
		Date:        time.Now(),
		Amount:      decimal.Zero,
		Description: "free lunch",
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	txn, err := f.service.AddManual(ctx, &entity.Candidate{
		Date:        time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("120.00"),
		Description: "rent share",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.CategoryUncategorized, txn.Category)
	assert.Equal(t, constants.CurrencyPEN, txn.Currency)
	assert.Equal(t, constants.KindActual, txn.Kind)

	stored, err := f.repos.Transactions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
