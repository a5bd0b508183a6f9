package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvManager(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	v, err := EnvManager{}.GetSecret(context.Background(), KeyGeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = EnvManager{}.GetSecret(context.Background(), "missing-key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestResolveFallback(t *testing.T) {
	assert.Equal(t, "fallback", Resolve(context.Background(), nil, KeyNoteSealKey, "fallback"))
	assert.Equal(t, "fallback", Resolve(context.Background(), EnvManager{}, "unset-secret", "fallback"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "NOTE_SEAL_KEY", EnvKey("note-seal.key"))
}

func TestVaultManagerRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Token: "t"}, nil)
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Address: "http://127.0.0.1:8200"}, nil)
	assert.ErrorIs(t, err, ErrNoVaultToken)
}
