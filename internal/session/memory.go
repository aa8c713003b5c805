package session

import (
	"context"
	"sync"
)

// Memory is a process-local Backend. It does not survive restarts.
type Memory struct {
	mu    sync.Mutex
	value string
}

func NewMemory(initial string) *Memory {
	return &Memory{value: initial}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = token
	return nil
}

func (m *Memory) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	return nil
}
