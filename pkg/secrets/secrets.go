// Package secrets resolves the provider API key and the note seal key from
// Vault, falling back to the environment.
package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// Secret keys
const (
	KeyGeminiAPIKey = "gemini_api_key"
	KeyNoteSealKey  = "note_seal_key"
	KeyJWTSecret    = "jwt_secret"
)

// Manager provides access to secrets
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// EnvManager reads secrets from upper-cased environment variables
type EnvManager struct{}

func (EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	v := os.Getenv(EnvKey(key))
	if v == "" {
		return "", ErrSecretNotFound
	}
	return v, nil
}

// EnvKey maps "gemini-api.key" style names to GEMINI_API_KEY
func EnvKey(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

// Resolve returns the secret, or fallback when it cannot be read
func Resolve(ctx context.Context, m Manager, key, fallback string) string {
	if m == nil {
		return fallback
	}
	v, err := m.GetSecret(ctx, key)
	if err != nil || v == "" {
		return fallback
	}
	return v
}
