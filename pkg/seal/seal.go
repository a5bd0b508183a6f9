// Package seal encrypts short text values at rest with XChaCha20-Poly1305.
package seal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Prefix marks sealed values so plain text stored earlier still reads back
const Prefix = "sealed:v1:"

var (
	ErrNoKey     = errors.New("seal key is empty")
	ErrCorrupted = errors.New("sealed value is corrupted")
)

// Sealer seals and opens values with one derived key
type Sealer struct {
	aead interface {
		NonceSize() int
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// New derives a 256-bit key from secret with HKDF-SHA256
func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrNoKey
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("maeum-note-seal")), key); err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init seal cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// IsSealed reports whether v carries the sealed prefix
func IsSealed(v string) bool {
	return strings.HasPrefix(v, Prefix)
}

// Seal encrypts plaintext. aad binds the value to its owner (e.g. a note id).
func (s *Sealer) Seal(plaintext, aad string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("seal nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(aad))
	return Prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a sealed value. Values without the prefix are returned unchanged.
func (s *Sealer) Open(value, aad string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", ErrCorrupted
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", ErrCorrupted
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], []byte(aad))
	if err != nil {
		return "", ErrCorrupted
	}
	return string(plain), nil
}
