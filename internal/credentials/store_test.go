package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastoslab/gastos-tracker/internal/common"
)

func TestStaticStoreSecret(t *testing.T) {
	store := NewStaticStore(map[string]string{
		"person@gmail.com": "app-password",
	})

	sec, err := store.Secret(context.Background(), "person@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "app-password", sec)

	// Lookup is case-insensitive on the address.
	sec, err = store.Secret(context.Background(), "Person@Gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "app-password", sec)
}

func TestStaticStoreMissingSecret(t *testing.T) {
	store := NewStaticStore(nil)

	_, err := store.Secret(context.Background(), "nobody@gmail.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSecretNotFound))
	assert.Contains(t, err.Error(), EnvPrefix)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "PERSON_GMAIL_COM", EnvKey("person@gmail.com"))
	assert.Equal(t, "A_B_C_EXAMPLE_PE", EnvKey(" a.b-c@example.pe "))
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv(EnvPrefix+"PERSON_GMAIL_COM", "from-env")

	store := FromEnvironment()
	sec, err := store.Secret(context.Background(), "person@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "from-env", sec)
}
