package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/config"
)

func TestPendingMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_indexes.sql", "001_init.sql", "003_seed.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "004_dir.sql"), 0o700))

	pending, err := pendingMigrations(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_indexes.sql", "003_seed.sql"}, pending)

	pending, err = pendingMigrations(dir, map[string]bool{"001_init.sql": true, "003_seed.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_indexes.sql"}, pending)
}

func TestPendingMigrationsMissingDir(t *testing.T) {
	_, err := pendingMigrations(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestUnconfiguredBackends(t *testing.T) {
	logger := zap.NewNop()

	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, logger)
	require.NoError(t, err)
	assert.Nil(t, pg)
	assert.Error(t, pg.Ping(context.Background()))
	assert.Nil(t, pg.PoolHandle())
	pg.Close()

	redis := NewRedis(config.RedisConfig{}, logger)
	assert.Nil(t, redis)
	assert.Error(t, redis.Ping(context.Background()))
	redis.Close()

	assert.NoError(t, RunMigrations(context.Background(), nil, "migrations", logger))
}
