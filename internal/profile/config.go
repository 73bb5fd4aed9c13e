package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// ProfileConfig is the textual (JSON) form of a BankProfile. Patterns are RE2
// expressions; date formats are Go reference layouts.
type ProfileConfig struct {
	Bank               string         `json:"bank"`
	SenderAddress      string         `json:"sender_address"`
	SubjectFilter      string         `json:"subject_filter,omitempty"`
	AmountPattern      string         `json:"amount_pattern"`
	DatePattern        string         `json:"date_pattern"`
	MerchantPatterns   []string       `json:"merchant_patterns"`
	DateFormats        []string       `json:"date_formats"`
	Symbols            []SymbolConfig `json:"symbols,omitempty"`
	DefaultCurrency    string         `json:"default_currency,omitempty"`
	DefaultDescription string         `json:"default_description,omitempty"`
}

// SymbolConfig maps a currency symbol substring to an ISO currency code.
type SymbolConfig struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type configFile struct {
	Profiles []ProfileConfig `json:"profiles"`
}

// LoadFile validates and merges profiles from a JSON file into reg,
// overriding built-ins for the same bank. A missing path is not an error.
func LoadFile(reg *Registry, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no bank profile file", "path", path)
			return nil
		}
		return fmt.Errorf("read profile config: %w", err)
	}

	if err := ValidateConfig(raw); err != nil {
		return fmt.Errorf("profile config %s: %w", path, err)
	}

	var f configFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("decode profile config: %w", err)
	}

	for _, cfg := range f.Profiles {
		p, err := compile(cfg)
		if err != nil {
			return err
		}
		reg.Register(p)
		logger.Info("registered bank profile", "bank", p.Bank, "sender", p.SenderAddress)
	}
	return nil
}
