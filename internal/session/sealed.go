package session

import (
	"context"
	"fmt"
)

// Sealer encrypts values before they reach durable storage. secretbox.Box implements it.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encoded string) (string, error)
}

type sealed struct {
	inner  Backend
	sealer Sealer
}

// Sealed wraps b so that the credential is stored encrypted.
func Sealed(b Backend, s Sealer) Backend {
	return &sealed{inner: b, sealer: s}
}

func (s *sealed) Load(ctx context.Context) (string, error) {
	raw, err := s.inner.Load(ctx)
	if err != nil || raw == "" {
		return "", err
	}
	token, err := s.sealer.Decrypt(raw)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return token, nil
}

func (s *sealed) Save(ctx context.Context, token string) error {
	raw, err := s.sealer.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}
	return s.inner.Save(ctx, raw)
}

func (s *sealed) Delete(ctx context.Context) error {
	return s.inner.Delete(ctx)
}
