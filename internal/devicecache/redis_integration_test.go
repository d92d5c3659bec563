//go:build integration

package devicecache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	cache := devicecache.NewRedisCache(rc.Client)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	alice := devicecache.NewScoped(cache, "alice")
	bob := devicecache.NewScoped(cache, "bob")
	require.NoError(t, alice.SetBool(ctx, devicecache.KeyNotificationsEnabled, true))

	enabled, ok, err := alice.GetBool(ctx, devicecache.KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, enabled)

	_, ok, err = bob.GetBool(ctx, devicecache.KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := rc.Client.TTL(ctx, "device:alice:"+devicecache.KeyNotificationsEnabled).Result()
	require.NoError(t, err)
	assert.Negative(t, int64(ttl), "value must not expire")
}
