package constants

import (
	"strings"
)

// Bank identifies a supported notification-sending bank.
type Bank string

const (
	BankBCP       Bank = "bcp"
	BankInterbank Bank = "interbank"
	BankBBVA      Bank = "bbva"
)

// AllBanks lists every bank with a built-in profile.
func AllBanks() []Bank {
	return []Bank{BankBCP, BankInterbank, BankBBVA}
}

// ParseBank normalizes a user-supplied bank name.
func ParseBank(s string) (Bank, bool) {
	switch Bank(strings.ToLower(strings.TrimSpace(s))) {
	case BankBCP:
		return BankBCP, true
	case BankInterbank:
		return BankInterbank, true
	case BankBBVA:
		return BankBBVA, true
	}
	return "", false
}

func (b Bank) String() string { return string(b) }

// Currency is the ISO code of a transaction amount.
type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
)

// TxnKind distinguishes actual spending from projected entries.
type TxnKind string

const (
	KindActual    TxnKind = "actual"
	KindProjected TxnKind = "projected"
)
