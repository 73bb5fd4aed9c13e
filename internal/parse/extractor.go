// Package parse extracts structured transaction candidates from decoded
// notification bodies using per-bank pattern chains.
package parse

import (
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/entity"
	"github.com/gastoslab/gastos-tracker/internal/profile"
)

const snippetLen = 120

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Extractor turns body text into transaction candidates. It is stateless
// apart from its clock, which exists so tests can pin the "now" fallback.
type Extractor struct {
	logger *slog.Logger
	nowFn  func() time.Time
}

// NewExtractor creates an extractor with the given logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger, nowFn: time.Now}
}

// WithClock overrides the processing-time fallback clock.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.nowFn = now
	return e
}

// Extract applies p's pattern chains to body and assembles a candidate.
// received is the message transport date, used as the date fallback before
// the processing clock; pass the zero time when unknown.
//
// The amount is the single required field: a body with no amount match
// returns common.ErrNoAmount (wrapped with a diagnostic snippet) and never a
// partially populated candidate. Every other field degrades to a default.
func (e *Extractor) Extract(body string, p *profile.BankProfile, received time.Time) (*entity.Candidate, error) {
	amount, err := e.extractAmount(body, p)
	if err != nil {
		return nil, err
	}

	cand := &entity.Candidate{
		Amount:      amount,
		Currency:    inferCurrency(body, p),
		Date:        e.extractDate(body, p, received),
		Description: e.extractMerchant(body, p),
		Bank:        p.Bank,
		Category:    constants.CategoryUncategorized,
		Kind:        constants.KindActual,
	}
	return cand, nil
}

// extractAmount runs the amount pattern and selects the maximum match.
// Notification bodies sometimes repeat the amount (line item plus running
// total); the larger figure is heuristically the transaction amount.
// Discarded alternatives are logged for corpus-driven tuning of the rule.
func (e *Extractor) extractAmount(body string, p *profile.BankProfile) (decimal.Decimal, error) {
	matches := p.AmountPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", common.ErrNoAmount, snippet(body))
	}

	var (
		best   decimal.Decimal
		found  bool
		others []string
	)
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := decimal.NewFromString(raw)
		if err != nil {
			e.logger.Debug("unparseable amount match", "bank", p.Bank, "match", m[1], "error", err)
			continue
		}
		if !found || v.GreaterThan(best) {
			if found {
				others = append(others, best.StringFixed(2))
			}
			best = v
			found = true
			continue
		}
		others = append(others, v.StringFixed(2))
	}

	// A matched-but-zero amount carries no spending information.
	if !found || !best.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", common.ErrNoAmount, snippet(body))
	}
	if len(others) > 0 {
		e.logger.Debug("discarded alternative amounts",
			"bank", p.Bank, "selected", best.StringFixed(2), "discarded", others)
	}
	return best.Round(2), nil
}

// inferCurrency probes the raw text for the profile's currency symbols,
// independent of which amount match was chosen.
func inferCurrency(body string, p *profile.BankProfile) constants.Currency {
	for _, s := range p.Symbols {
		if strings.Contains(body, s.Symbol) {
			return s.Currency
		}
	}
	return p.DefaultCurrency
}

// extractDate finds the first date token and tries the profile's format chain
// in order. When no token is found, or none of the formats parse it, the
// transport date is used, then the processing clock.
func (e *Extractor) extractDate(body string, p *profile.BankProfile, received time.Time) time.Time {
	if m := p.DatePattern.FindStringSubmatch(body); len(m) >= 2 {
		token := m[1]
		for _, layout := range p.DateFormats {
			if t, err := time.Parse(layout, token); err == nil {
				return t
			}
		}
		e.logger.Debug("date token matched no format", "bank", p.Bank, "token", token)
	}
	if !received.IsZero() {
		return received
	}
	return e.nowFn()
}

// extractMerchant tries the merchant pattern chain in order and returns the
// first non-empty match, whitespace-trimmed and markup-stripped.
func (e *Extractor) extractMerchant(body string, p *profile.BankProfile) string {
	for _, re := range p.MerchantPatterns {
		m := re.FindStringSubmatch(body)
		if len(m) < 2 {
			continue
		}
		desc := CleanDescription(m[1])
		if desc != "" {
			return desc
		}
	}
	return p.DefaultDescription
}

// CleanDescription strips embedded markup tags, decodes HTML entities and
// trims surrounding whitespace.
func CleanDescription(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// snippet returns the leading slice of body retained for troubleshooting
// extraction failures.
func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > snippetLen {
		return body[:snippetLen] + "..."
	}
	return body
}
