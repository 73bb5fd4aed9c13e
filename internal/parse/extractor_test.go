package parse

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/profile"
)

func bcpTestProfile(t *testing.T) *profile.BankProfile {
	t.Helper()
	p := profile.DefaultRegistry().Get(constants.BankBCP)
	require.NotNil(t, p)
	return p
}

func TestExtractConsumoNotification(t *testing.T) {
	body := "Realizaste un consumo por S/ 90.00 en <b>SUSHI POP</b> el 08/02/2025 con tu Tarjeta de Crédito BCP."
	ex := NewExtractor(nil)

	cand, err := ex.Extract(body, bcpTestProfile(t), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "90.00", cand.Amount.StringFixed(2))
	assert.Equal(t, constants.CurrencyPEN, cand.Currency)
	assert.Equal(t, time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC), cand.DateOnly())
	assert.Equal(t, "SUSHI POP", cand.Description)
	assert.Equal(t, constants.BankBCP, cand.Bank)
	assert.Equal(t, constants.CategoryUncategorized, cand.Category)
	assert.Equal(t, constants.KindActual, cand.Kind)
}

func TestExtractAmountThousandsSeparator(t *testing.T) {
	body := "Realizaste un consumo por S/ 1,234.50 en <b>SAGA FALABELLA</b> el 10/03/2025."
	ex := NewExtractor(nil)

	cand, err := ex.Extract(body, bcpTestProfile(t), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "1234.50", cand.Amount.StringFixed(2))
}

func TestExtractAmountPicksMaximum(t *testing.T) {
	body := "Comisión S/ 20.00. Total del consumo S/ 150.00 en <b>LATAM AIRLINES</b> el 01/04/2025."
	ex := NewExtractor(nil)

	cand, err := ex.Extract(body, bcpTestProfile(t), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "150.00", cand.Amount.StringFixed(2))
}

func TestExtractNoAmount(t *testing.T) {
	ex := NewExtractor(nil)
	tests := []struct {
		name string
		body string
	}{
		{"no amount token", "Gracias por usar la banca móvil BCP."},
		{"zero amount", "Realizaste un consumo por S/ 0.00 en <b>PRUEBA</b>."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, err := ex.Extract(tt.body, bcpTestProfile(t), time.Time{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrNoAmount))
			assert.Nil(t, cand)
		})
	}
}

func TestExtractCurrencyBySymbol(t *testing.T) {
	ex := NewExtractor(nil)
	prof := bcpTestProfile(t)

	cand, err := ex.Extract("Consumo US$ 45.00 en <b>AMAZON MKTP</b> el 05/05/2025.", prof, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, constants.CurrencyUSD, cand.Currency)

	cand, err = ex.Extract("Consumo S/ 45.00 en <b>WONG</b> el 05/05/2025.", prof, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, constants.CurrencyPEN, cand.Currency)
}

func TestExtractCurrencyDefault(t *testing.T) {
	// A profile whose amount pattern carries no currency symbol at all.
	prof := &profile.BankProfile{
		Bank:               constants.BankBBVA,
		AmountPattern:      regexp.MustCompile(`Monto:\s*(\d+(?:\.\d{1,2})?)`),
		DatePattern:        regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),
		DateFormats:        []string{"02/01/2006"},
		DefaultCurrency:    constants.CurrencyPEN,
		DefaultDescription: "Unlabeled charge",
	}
	ex := NewExtractor(nil)

	cand, err := ex.Extract("Monto: 33.10 el 02/02/2025", prof, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, constants.CurrencyPEN, cand.Currency)
}

func TestExtractDateFormats(t *testing.T) {
	ex := NewExtractor(nil)
	prof := bcpTestProfile(t)
	want := time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC)

	for _, token := range []string{"08/02/2025", "08-02-2025", "08/02/25", "08-02-25"} {
		t.Run(token, func(t *testing.T) {
			cand, err := ex.Extract("S/ 10.00 en <b>X</b> el "+token, prof, time.Time{})
			require.NoError(t, err)
			assert.Equal(t, want, cand.DateOnly())
		})
	}
}

func TestExtractDateFallsBackToTransportDate(t *testing.T) {
	ex := NewExtractor(nil)
	received := time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC)

	cand, err := ex.Extract("Consumo S/ 25.00 en <b>UBER</b>", bcpTestProfile(t), received)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), cand.DateOnly())
}

func TestExtractDateFallsBackToClock(t *testing.T) {
	now := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	ex := NewExtractor(nil).WithClock(func() time.Time { return now })

	cand, err := ex.Extract("Consumo S/ 25.00 en <b>UBER</b>", bcpTestProfile(t), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), cand.DateOnly())
}

func TestExtractMerchantSecondaryPattern(t *testing.T) {
	body := "Realizaste un consumo en TOTTUS LIMA.\nMonto: S/ 35.00 el 03/03/2025"
	ex := NewExtractor(nil)

	cand, err := ex.Extract(body, bcpTestProfile(t), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "TOTTUS LIMA", cand.Description)
}

func TestExtractMerchantDefault(t *testing.T) {
	ex := NewExtractor(nil)

	cand, err := ex.Extract("Cargo por S/ 12.00 el 03/03/2025", bcpTestProfile(t), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "Unlabeled BCP charge", cand.Description)
}

func TestExtractDeterministic(t *testing.T) {
	body := "Realizaste un consumo por S/ 90.00 en <b>SUSHI POP</b> el 08/02/2025."
	ex := NewExtractor(nil)
	prof := bcpTestProfile(t)

	first, err := ex.Extract(body, prof, time.Time{})
	require.NoError(t, err)
	second, err := ex.Extract(body, prof, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, first.Amount.StringFixed(2), second.Amount.StringFixed(2))
	assert.Equal(t, first.Currency, second.Currency)
	assert.True(t, first.Date.Equal(second.Date))
	assert.Equal(t, first.Description, second.Description)
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>SUSHI POP</b>", "SUSHI POP"},
		{"  SUSHI POP  ", "SUSHI POP"},
		{"Caf&eacute; Lima", "Café Lima"},
		{"<span>TIENDA <i>XYZ</i></span>", "TIENDA XYZ"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanDescription(tt.in), "input %q", tt.in)
	}
}
