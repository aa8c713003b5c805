// Package session keeps the credential that authenticates requests to the remote service.
//
// A Store holds at most one active credential per process. The durable Backend is read
// once, on the first successful access, after which the in-memory value is authoritative.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend persists the credential across process restarts.
// Load returns an empty string and a nil error when nothing is stored.
type Backend interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// StorageError reports a durable storage failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

type Store struct {
	mu      sync.Mutex
	backend Backend
	token   string
	loaded  bool
	log     logrus.FieldLogger
}

func NewStore(backend Backend, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{
		backend: backend,
		log:     log.WithField("component", "session"),
	}
}

// Set persists token and makes it the active credential. An empty token clears the session.
// When persisting fails the previous credential stays active.
func (s *Store) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(ctx, token); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	s.token = token
	s.loaded = true
	return nil
}

// Get returns the active credential or an empty string when unauthenticated.
// A failed durable read is logged and reported as no session; it is retried on the next call.
func (s *Store) Get(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.token
	}
	token, err := s.backend.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("read persisted session")
		return ""
	}
	s.token = token
	s.loaded = true
	return token
}

func (s *Store) Authenticated(ctx context.Context) bool {
	return s.Get(ctx) != ""
}

// Clear drops the in-memory credential unconditionally, then removes the durable copy.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.loaded = true
	if err := s.backend.Delete(ctx); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
