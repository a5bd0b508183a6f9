package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"

	"maeum-toegeun/backend/pkg/logger"
)

// VaultConfig holds configuration for the Vault client
type VaultConfig struct {
	Address    string
	Token      string
	Namespace  string
	Mount      string
	Path       string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

// VaultManager reads one KV v2 secret and caches its fields. Keys missing in
// Vault fall back to the environment.
type VaultManager struct {
	client   *vault.Client
	config   VaultConfig
	fallback Manager
	log      *logger.Logger

	mu       sync.RWMutex
	cache    map[string]string
	cachedAt time.Time
}

func NewVaultManager(config VaultConfig, log *logger.Logger) (*VaultManager, error) {
	if config.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if config.Token == "" {
		return nil, ErrNoVaultToken
	}
	if config.Mount == "" {
		config.Mount = "secret"
	}
	if config.Path == "" {
		config.Path = "maeum"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	vc := vault.DefaultConfig()
	vc.Address = config.Address
	vc.Timeout = config.Timeout
	vc.MaxRetries = config.MaxRetries

	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	return &VaultManager{
		client:   client,
		config:   config,
		fallback: EnvManager{},
		log:      log.WithComponent("secrets"),
		cache:    make(map[string]string),
	}, nil
}

func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	v, ok := m.cache[key]
	fresh := time.Since(m.cachedAt) < m.config.CacheTTL
	m.mu.RUnlock()
	if ok && fresh {
		return v, nil
	}

	v, err := m.read(ctx, key)
	if errors.Is(err, ErrSecretNotFound) {
		m.log.Warn("secret not found in vault, falling back to environment", "key", key)
		return m.fallback.GetSecret(ctx, key)
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (m *VaultManager) read(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(m.config.Mount).Get(ctx, m.config.Path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		m.log.Error("failed to read secret from vault", "path", m.config.Path, "error", err.Error())
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	fields := make(map[string]string, len(secret.Data))
	for k, raw := range secret.Data {
		if s, ok := raw.(string); ok {
			fields[k] = s
		}
	}
	m.mu.Lock()
	m.cache = fields
	m.cachedAt = time.Now()
	m.mu.Unlock()

	v, ok := fields[key]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}
