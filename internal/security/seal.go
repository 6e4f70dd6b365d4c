// Package security seals Shopify access tokens before they are written to the database.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "v1:"

var ErrBadKey = errors.New("TOKEN_ENC_KEY_B64 must decode to 32 bytes")

// Sealer encrypts tokens with XChaCha20-Poly1305. A zero Sealer (no key)
// passes values through unchanged.
type Sealer struct {
	key []byte
}

// NewSealer decodes a base64 key. An empty string yields a pass-through Sealer.
func NewSealer(b64 string) (*Sealer, error) {
	if b64 == "" {
		return &Sealer{}, nil
	}
	k, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(k) != chacha20poly1305.KeySize {
		return nil, ErrBadKey
	}
	return &Sealer{key: k}, nil
}

func (s *Sealer) Enabled() bool { return s != nil && len(s.key) > 0 }

// Seal returns "v1:" + base64url(nonce|ciphertext).
func (s *Sealer) Seal(plain string) (string, error) {
	if !s.Enabled() || plain == "" {
		return plain, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(plain), nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is so
// rows written before a key was configured keep working.
func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.Enabled() {
		return "", errors.New("sealed token found but no TOKEN_ENC_KEY_B64 configured")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed token too short")
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
