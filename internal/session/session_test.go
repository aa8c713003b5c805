package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/security/secretbox"
)

type flakyBackend struct {
	mu        sync.Mutex
	value     string
	loads     int
	loadErr   error
	saveErr   error
	deleteErr error
}

func (b *flakyBackend) Load(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if b.loadErr != nil {
		return "", b.loadErr
	}
	return b.value, nil
}

func (b *flakyBackend) Save(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.value = token
	return nil
}

func (b *flakyBackend) Delete(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.value = ""
	return nil
}

func TestGetReadsDurableStorageOnce(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{value: "connect.sid=abc"}
	store := NewStore(backend, nil)

	assert.Equal(t, "connect.sid=abc", store.Get(ctx))
	backend.value = "connect.sid=changed-behind-our-back"
	assert.Equal(t, "connect.sid=abc", store.Get(ctx))
	assert.Equal(t, 1, backend.loads)
}

func TestGetDegradesToNoSessionOnReadFailure(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{value: "connect.sid=abc", loadErr: errors.New("disk on fire")}
	store := NewStore(backend, nil)

	assert.Equal(t, "", store.Get(ctx))
	assert.False(t, store.Authenticated(ctx))

	backend.loadErr = nil
	assert.Equal(t, "connect.sid=abc", store.Get(ctx), "a failed read is retried")
}

func TestSetPersistsAndActivates(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{}
	store := NewStore(backend, nil)

	require.NoError(t, store.Set(ctx, "connect.sid=xyz"))
	assert.Equal(t, "connect.sid=xyz", store.Get(ctx))
	assert.Equal(t, "connect.sid=xyz", backend.value)
	assert.Equal(t, 0, backend.loads)

	// A new process sees the persisted value.
	restarted := NewStore(backend, nil)
	assert.Equal(t, "connect.sid=xyz", restarted.Get(ctx))
}

func TestSetStorageFailureKeepsPreviousCredential(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{value: "old"}
	store := NewStore(backend, nil)
	require.Equal(t, "old", store.Get(ctx))

	backend.saveErr = errors.New("read-only")
	err := store.Set(ctx, "new")
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.Equal(t, "old", store.Get(ctx))
}

func TestClearRemovesBothCopies(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{value: "connect.sid=abc"}
	store := NewStore(backend, nil)
	require.Equal(t, "connect.sid=abc", store.Get(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, "", store.Get(ctx))
	assert.Equal(t, "", backend.value)
}

func TestClearStorageFailureStillDropsActiveCredential(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{value: "connect.sid=abc", deleteErr: errors.New("locked")}
	store := NewStore(backend, nil)

	err := store.Clear(ctx)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "delete", se.Op)
	assert.Equal(t, "", store.Get(ctx))
}

func TestSetEmptyTokenClears(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory("connect.sid=abc")
	store := NewStore(backend, nil)

	require.NoError(t, store.Set(ctx, ""))
	assert.False(t, store.Authenticated(ctx))
	v, _ := backend.Load(ctx)
	assert.Equal(t, "", v)
}

func TestSealedBackendEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	box, err := secretbox.New(make([]byte, secretbox.KeySize), "session")
	require.NoError(t, err)

	raw := NewMemory("")
	store := NewStore(Sealed(raw, box), nil)
	require.NoError(t, store.Set(ctx, "connect.sid=abc"))

	stored, _ := raw.Load(ctx)
	assert.NotEmpty(t, stored)
	assert.NotContains(t, stored, "connect.sid")

	restarted := NewStore(Sealed(raw, box), nil)
	assert.Equal(t, "connect.sid=abc", restarted.Get(ctx))
}

func TestSealedBackendUndecryptableValueIsNoSession(t *testing.T) {
	ctx := context.Background()
	box, err := secretbox.New(make([]byte, secretbox.KeySize), "session")
	require.NoError(t, err)

	store := NewStore(Sealed(NewMemory("not-ciphertext"), box), nil)
	assert.Equal(t, "", store.Get(ctx))
}
