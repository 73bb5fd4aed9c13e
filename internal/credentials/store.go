// Package credentials resolves mail-account secrets. Secrets are handed to
// the connector by explicit parameter passing; nothing here mutates or reads
// ambient process state after construction.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gastoslab/gastos-tracker/internal/common"
)

// EnvPrefix names the environment variables scanned by FromEnvironment:
// MAIL_SECRET_<ADDRESS> with non-alphanumerics in the address mapped to '_'.
const EnvPrefix = "MAIL_SECRET_"

// Store supplies the app-specific secret for a mail address. Lookup is a
// black-box call: a missing secret fails with common.ErrSecretNotFound,
// distinguishable from network errors.
type Store interface {
	Secret(ctx context.Context, address string) (string, error)
}

// StaticStore is an immutable in-memory Store built once at startup.
type StaticStore struct {
	secrets map[string]string
}

// NewStaticStore builds a store from an address -> secret map.
func NewStaticStore(m map[string]string) *StaticStore {
	secrets := make(map[string]string, len(m))
	for addr, sec := range m {
		secrets[normalizeAddress(addr)] = sec
	}
	return &StaticStore{secrets: secrets}
}

// Secret implements Store.
func (s *StaticStore) Secret(_ context.Context, address string) (string, error) {
	sec, ok := s.secrets[normalizeAddress(address)]
	if !ok {
		return "", fmt.Errorf("%w: %s (set %s%s)",
			common.ErrSecretNotFound, address, EnvPrefix, EnvKey(address))
	}
	return sec, nil
}

// FromEnvironment snapshots MAIL_SECRET_* variables into a StaticStore.
// The environment is read exactly once, here.
func FromEnvironment() *StaticStore {
	secrets := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		secrets[strings.TrimPrefix(k, EnvPrefix)] = v
	}
	return &StaticStore{secrets: secrets}
}

// EnvKey maps a mail address to its environment-variable suffix.
func EnvKey(address string) string {
	return normalizeAddress(address)
}

func normalizeAddress(address string) string {
	up := strings.ToUpper(strings.TrimSpace(address))
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, up)
}
