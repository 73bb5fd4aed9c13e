// Package profile holds the static per-bank extraction configuration.
// Adding a bank means adding one profile, never new control flow.
package profile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gastoslab/gastos-tracker/constants"
)

// CurrencySymbol maps a literal symbol substring to the currency it implies.
// Symbols are probed in order; the first one present in the body wins.
type CurrencySymbol struct {
	Symbol   string
	Currency constants.Currency
}

// BankProfile bundles the patterns and filters specific to one
// notification-sending bank. Immutable after construction.
type BankProfile struct {
	Bank          constants.Bank
	SenderAddress string
	SubjectFilter string // optional; empty means sender+date only

	// AmountPattern must expose the numeric amount as capture group 1.
	AmountPattern *regexp.Regexp
	// DatePattern captures a day/month/year token as group 1.
	DatePattern *regexp.Regexp
	// MerchantPatterns are tried in order; the first non-empty group-1 match
	// becomes the description.
	MerchantPatterns []*regexp.Regexp
	// DateFormats are Go reference layouts tried in order against the
	// captured date token.
	DateFormats []string

	Symbols []CurrencySymbol
	// DefaultCurrency applies when no symbol is found in the body.
	DefaultCurrency constants.Currency
	// DefaultDescription labels candidates whose merchant could not be
	// recovered.
	DefaultDescription string
}

// Registry holds bank profiles keyed by bank identifier.
type Registry struct {
	profiles map[constants.Bank]*BankProfile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[constants.Bank]*BankProfile)}
}

// Register adds a profile, replacing any previous profile for the same bank.
func (r *Registry) Register(p *BankProfile) {
	r.profiles[p.Bank] = p
}

// Get returns the profile for bank, or nil.
func (r *Registry) Get(bank constants.Bank) *BankProfile {
	return r.profiles[bank]
}

// Banks lists the registered bank identifiers.
func (r *Registry) Banks() []constants.Bank {
	out := make([]constants.Bank, 0, len(r.profiles))
	for _, b := range constants.AllBanks() {
		if _, ok := r.profiles[b]; ok {
			out = append(out, b)
		}
	}
	for b := range r.profiles {
		if !containsBank(out, b) {
			out = append(out, b)
		}
	}
	return out
}

func containsBank(banks []constants.Bank, b constants.Bank) bool {
	for _, x := range banks {
		if x == b {
			return true
		}
	}
	return false
}

// DefaultRegistry returns a registry with all built-in bank profiles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(bcpProfile())
	r.Register(interbankProfile())
	r.Register(bbvaProfile())
	return r
}

// Peruvian notification amounts use "S/" for soles and "US$" for dollars;
// "S/" must be probed first since both may appear in one body.
func peruvianSymbols() []CurrencySymbol {
	return []CurrencySymbol{
		{Symbol: "S/", Currency: constants.CurrencyPEN},
		{Symbol: "US$", Currency: constants.CurrencyUSD},
	}
}

const (
	amountPatternPeru = `(?:S/|US\$)\s*(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`
	datePatternGlobal = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`
)

var dayMonthYearFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"02-01-06",
}

func bcpProfile() *BankProfile {
	return &BankProfile{
		Bank:          constants.BankBCP,
		SenderAddress: "notificaciones@notificacionesbcp.com.pe",
		SubjectFilter: "Realizaste un consumo con tu Tarjeta de Crédito BCP",
		AmountPattern: regexp.MustCompile(amountPatternPeru),
		DatePattern:   regexp.MustCompile(datePatternGlobal),
		MerchantPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)\ben\s*<b>(.*?)</b>`),
			regexp.MustCompile(`(?i)(?:compra|consumo|pago)\b[^.\n]*?\b(?:en|con)\s+([^.<\n]+)`),
		},
		DateFormats:        dayMonthYearFormats,
		Symbols:            peruvianSymbols(),
		DefaultCurrency:    constants.CurrencyPEN,
		DefaultDescription: "Unlabeled BCP charge",
	}
}

func interbankProfile() *BankProfile {
	return &BankProfile{
		Bank:          constants.BankInterbank,
		SenderAddress: "bancadigital@interbank.pe",
		SubjectFilter: "Constancia de consumo",
		AmountPattern: regexp.MustCompile(amountPatternPeru),
		DatePattern:   regexp.MustCompile(datePatternGlobal),
		MerchantPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)\ben\s*<b>(.*?)</b>`),
			regexp.MustCompile(`(?i)(?:compra|consumo)\b[^.\n]*?\ben\s+([^.<\n]+)`),
		},
		DateFormats:        dayMonthYearFormats,
		Symbols:            peruvianSymbols(),
		DefaultCurrency:    constants.CurrencyPEN,
		DefaultDescription: "Unlabeled Interbank charge",
	}
}

func bbvaProfile() *BankProfile {
	return &BankProfile{
		Bank:          constants.BankBBVA,
		SenderAddress: "notificaciones@bbva.pe",
		SubjectFilter: "", // BBVA alerts vary by product; matched on sender+date
		AmountPattern: regexp.MustCompile(amountPatternPeru),
		DatePattern:   regexp.MustCompile(datePatternGlobal),
		MerchantPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)\ben\s*<b>(.*?)</b>`),
			regexp.MustCompile(`(?i)(?:operación|compra)\b[^.\n]*?\ben\s+([^.<\n]+)`),
		},
		DateFormats:        dayMonthYearFormats,
		Symbols:            peruvianSymbols(),
		DefaultCurrency:    constants.CurrencyPEN,
		DefaultDescription: "Unlabeled BBVA charge",
	}
}

// compile builds a BankProfile from its textual configuration form.
func compile(cfg ProfileConfig) (*BankProfile, error) {
	bank, ok := constants.ParseBank(cfg.Bank)
	if !ok {
		bank = constants.Bank(strings.ToLower(strings.TrimSpace(cfg.Bank)))
	}

	amount, err := regexp.Compile(cfg.AmountPattern)
	if err != nil {
		return nil, fmt.Errorf("profile %q: amount_pattern: %w", cfg.Bank, err)
	}
	date, err := regexp.Compile(cfg.DatePattern)
	if err != nil {
		return nil, fmt.Errorf("profile %q: date_pattern: %w", cfg.Bank, err)
	}
	merchants := make([]*regexp.Regexp, 0, len(cfg.MerchantPatterns))
	for i, pat := range cfg.MerchantPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("profile %q: merchant_patterns[%d]: %w", cfg.Bank, i, err)
		}
		merchants = append(merchants, re)
	}

	defCur := constants.CurrencyPEN
	if cfg.DefaultCurrency != "" {
		defCur = constants.Currency(strings.ToUpper(cfg.DefaultCurrency))
	}

	symbols := make([]CurrencySymbol, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols = append(symbols, CurrencySymbol{
			Symbol:   s.Symbol,
			Currency: constants.Currency(strings.ToUpper(s.Currency)),
		})
	}
	if len(symbols) == 0 {
		symbols = peruvianSymbols()
	}

	desc := cfg.DefaultDescription
	if desc == "" {
		desc = "Unlabeled charge"
	}

	return &BankProfile{
		Bank:               bank,
		SenderAddress:      cfg.SenderAddress,
		SubjectFilter:      cfg.SubjectFilter,
		AmountPattern:      amount,
		DatePattern:        date,
		MerchantPatterns:   merchants,
		DateFormats:        cfg.DateFormats,
		Symbols:            symbols,
		DefaultCurrency:    defCur,
		DefaultDescription: desc,
	}, nil
}
