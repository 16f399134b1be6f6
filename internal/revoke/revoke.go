// Package revoke tracks access tokens invalidated by logout before their expiry.
package revoke

import (
	"context"
	"sync"
	"time"
)

// Store records revoked token ids until they would have expired anyway.
type Store interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	if until.After(m.now()) {
		m.revoked[tokenID] = until
	}
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) sweep() {
	now := m.now()
	for id, until := range m.revoked {
		if !until.After(now) {
			delete(m.revoked, id)
		}
	}
}
