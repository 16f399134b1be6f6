package revoke

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevokeUntilExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Revoke(ctx, "jti-1", clock.Add(time.Minute)))
	revoked, err := m.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	clock = clock.Add(2 * time.Minute)
	revoked, err = m.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryIgnoresAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Revoke(ctx, "old", time.Now().Add(-time.Second)))
	revoked, err := m.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
