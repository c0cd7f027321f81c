package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	list := NewMemory()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryEntryExpires(t *testing.T) {
	ctx := context.Background()
	list := NewMemory()

	current := time.Now()
	list.now = func() time.Time { return current }

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))

	// Once the capsule itself would have expired, the entry is dropped.
	current = current.Add(2 * time.Minute)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryIgnoresBlankAndNonPositive(t *testing.T) {
	ctx := context.Background()
	list := NewMemory()

	require.NoError(t, list.Revoke(ctx, "", time.Minute))
	require.NoError(t, list.Revoke(ctx, "jti-1", 0))

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
