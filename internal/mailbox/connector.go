// Package mailbox fetches raw bank-notification messages over IMAP and
// decodes their bodies to plain text.
package mailbox

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/sethvargo/go-retry"

	"github.com/gastoslab/gastos-tracker/internal/common"
)

// RawMessage is one fetched email: opaque RFC 822 bytes plus the transport
// date recovered from the envelope. Owned transiently by the connector,
// consumed by the decoder, then discarded.
type RawMessage struct {
	SeqNum   uint32
	Received time.Time
	Raw      []byte
}

// Query scopes a mailbox search. Sender, subject and since-date are combined
// with logical AND; an empty Subject drops that predicate.
type Query struct {
	Sender  string
	Subject string
	Since   time.Time
}

// Connector opens authenticated IMAP sessions against one server.
type Connector struct {
	addr       string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewConnector creates a connector for cfg's IMAP server.
func NewConnector(cfg common.MailConfig, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		addr:       cfg.ServerAddr,
		maxRetries: cfg.MaxRetries,
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
}

// Fetch opens a session for address, searches INBOX for messages matching q
// and returns their raw bytes. The session is logged out on every exit path
// (success, empty result or error) so server-side session slots are never
// leaked.
//
// Failures are typed: *common.AuthPolicyError when the provider demands an
// app-specific password, *common.ConnectionError for anything transient.
func (c *Connector) Fetch(ctx context.Context, address, secret string, q Query) ([]RawMessage, error) {
	client, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			c.logger.Warn("imap logout failed", "server", c.addr, "error", err)
		}
		_ = client.Close()
	}()

	if err := client.Login(address, secret).Wait(); err != nil {
		if isAppPasswordRejection(err) {
			return nil, &common.AuthPolicyError{
				Provider:    c.addr,
				Remediation: appPasswordRemediation,
				Cause:       err,
			}
		}
		return nil, &common.ConnectionError{Op: "login", Cause: err}
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, &common.ConnectionError{Op: "select", Cause: err}
	}

	criteria := &imap.SearchCriteria{Since: q.Since}
	criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{
		Key: "From", Value: q.Sender,
	})
	if q.Subject != "" {
		criteria.Header = append(criteria.Header, imap.SearchCriteriaHeaderField{
			Key: "Subject", Value: q.Subject,
		})
	}

	data, err := client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, &common.ConnectionError{Op: "search", Cause: err}
	}
	nums := data.AllSeqNums()
	c.logger.Info("mailbox search completed",
		"server", c.addr, "sender", q.Sender, "since", q.Since.Format("2006-01-02"), "matches", len(nums))
	if len(nums) == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, &common.ConnectionError{Op: "fetch", Cause: err}
	}

	bodySection := &imap.FetchItemBodySection{}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}
	msgs, err := client.Fetch(imap.SeqSetNum(nums...), fetchOpts).Collect()
	if err != nil {
		return nil, &common.ConnectionError{Op: "fetch", Cause: err}
	}

	out := make([]RawMessage, 0, len(msgs))
	for _, m := range msgs {
		raw := m.FindBodySection(bodySection)
		if len(raw) == 0 {
			c.logger.Warn("message without body section", "seq", m.SeqNum)
			continue
		}
		rm := RawMessage{SeqNum: m.SeqNum, Raw: raw}
		if m.Envelope != nil {
			rm.Received = m.Envelope.Date
		}
		out = append(out, rm)
	}
	return out, nil
}

// dial connects with bounded retries; TLS handshake and network errors are
// transient and worth one or two more attempts before failing the run.
func (c *Connector) dial(ctx context.Context) (*imapclient.Client, error) {
	var client *imapclient.Client
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewConstant(c.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		cl, err := imapclient.DialTLS(c.addr, nil)
		if err != nil {
			c.logger.Debug("imap dial failed", "server", c.addr, "error", err)
			return retry.RetryableError(err)
		}
		client = cl
		return nil
	})
	if err != nil {
		return nil, &common.ConnectionError{Op: "dial", Cause: err}
	}
	return client, nil
}

const appPasswordRemediation = "The provider rejected the account password and requires an " +
	"app-specific password. Open your provider's security settings, enable two-step " +
	"verification, generate an app password for this tool and configure it in place of " +
	"the account password."

// Gmail phrases the policy rejection in the login error text.
func isAppPasswordRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "application-specific password") ||
		strings.Contains(msg, "app password") ||
		strings.Contains(msg, "app-specific password")
}
