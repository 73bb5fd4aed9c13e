package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastoslab/gastos-tracker/constants"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	for _, bank := range constants.AllBanks() {
		p := reg.Get(bank)
		require.NotNil(t, p, "missing profile for %s", bank)
		assert.NotEmpty(t, p.SenderAddress)
		assert.NotNil(t, p.AmountPattern)
		assert.NotNil(t, p.DatePattern)
		assert.NotEmpty(t, p.DateFormats)
		assert.Equal(t, constants.CurrencyPEN, p.DefaultCurrency)
		assert.NotEmpty(t, p.DefaultDescription)
	}
	assert.Nil(t, reg.Get(constants.Bank("scotiabank")))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid minimal",
			raw: `{"profiles": [{
				"bank": "bcp",
				"sender_address": "notificaciones@notificacionesbcp.com.pe",
				"amount_pattern": "S/\\s*(\\d+)",
				"date_pattern": "(\\d{2}/\\d{2}/\\d{4})",
				"date_formats": ["02/01/2006"]
			}]}`,
		},
		{
			name:    "missing profiles key",
			raw:     `{"banks": []}`,
			wantErr: true,
		},
		{
			name: "missing required field",
			raw: `{"profiles": [{
				"bank": "bcp",
				"sender_address": "a@b.pe",
				"amount_pattern": "x",
				"date_pattern": "y"
			}]}`,
			wantErr: true,
		},
		{
			name: "unknown property rejected",
			raw: `{"profiles": [{
				"bank": "bcp",
				"sender_address": "a@b.pe",
				"amount_pattern": "x",
				"date_pattern": "y",
				"date_formats": ["02/01/2006"],
				"surprise": true
			}]}`,
			wantErr: true,
		},
		{
			name: "bad currency code",
			raw: `{"profiles": [{
				"bank": "bcp",
				"sender_address": "a@b.pe",
				"amount_pattern": "x",
				"date_pattern": "y",
				"date_formats": ["02/01/2006"],
				"default_currency": "SOLES"
			}]}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFileOverridesBuiltin(t *testing.T) {
	raw := `{"profiles": [{
		"bank": "bcp",
		"sender_address": "alertas@notificacionesbcp.com.pe",
		"amount_pattern": "S/\\s*(\\d+(?:\\.\\d{1,2})?)",
		"date_pattern": "(\\d{1,2}/\\d{1,2}/\\d{4})",
		"merchant_patterns": ["en ([A-Z ]+)"],
		"date_formats": ["02/01/2006"],
		"default_description": "Cargo BCP"
	}]}`
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	reg := DefaultRegistry()
	require.NoError(t, LoadFile(reg, path, nil))

	p := reg.Get(constants.BankBCP)
	require.NotNil(t, p)
	assert.Equal(t, "alertas@notificacionesbcp.com.pe", p.SenderAddress)
	assert.Equal(t, "Cargo BCP", p.DefaultDescription)
	assert.Equal(t, constants.CurrencyPEN, p.DefaultCurrency)
	assert.Len(t, p.Symbols, 2)
}

func TestLoadFileMissingPathIsNoOp(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, LoadFile(reg, filepath.Join(t.TempDir(), "absent.json"), nil))
	assert.NotNil(t, reg.Get(constants.BankBCP))
}

func TestLoadFileRejectsBadPattern(t *testing.T) {
	raw := `{"profiles": [{
		"bank": "bcp",
		"sender_address": "a@b.pe",
		"amount_pattern": "S/ (unclosed",
		"date_pattern": "(\\d{1,2}/\\d{1,2}/\\d{4})",
		"date_formats": ["02/01/2006"]
	}]}`
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	err := LoadFile(DefaultRegistry(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount_pattern")
}
