package devicecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedIsolatesOwners(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryCache()
	alice := NewScoped(backing, "alice")
	bob := NewScoped(backing, "bob")

	require.NoError(t, alice.SetBool(ctx, KeyNotificationsEnabled, true))

	val, ok, err := alice.GetBool(ctx, KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, val)

	_, ok, err = bob.GetBool(ctx, KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.False(t, ok)

	raw, ok, err := backing.Get(ctx, "device:alice:"+KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", raw)
}

func TestScopedGetBoolIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	scoped := NewScoped(NewMemoryCache(), "alice")
	require.NoError(t, scoped.Set(ctx, KeyNotificationsEnabled, "maybe"))

	_, ok, err := scoped.GetBool(ctx, KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.False(t, ok)
}
