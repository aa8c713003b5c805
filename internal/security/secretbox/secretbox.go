// Package secretbox seals short secrets at rest with AES-256-GCM.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const KeySize = 32

var ErrMalformed = errors.New("secretbox: malformed sealed value")

// Box seals values under a label. A value sealed under one label does not open under
// another, so a credential cannot be swapped for some other sealed field.
type Box struct {
	aead  cipher.AEAD
	label []byte
}

func New(key []byte, label string) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secretbox: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	return &Box{aead: aead, label: []byte(label)}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (b *Box) Encrypt(plaintext string) (string, error) {
	n := b.aead.NonceSize()
	buf := make([]byte, n, n+len(plaintext)+b.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b.aead.Seal(buf, buf, []byte(plaintext), b.label)), nil
}

func (b *Box) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	n := b.aead.NonceSize()
	if err != nil || len(raw) < n+b.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := b.aead.Open(nil, raw[:n], raw[n:], b.label)
	if err != nil {
		return "", fmt.Errorf("secretbox: open: %w", err)
	}
	return string(plain), nil
}
