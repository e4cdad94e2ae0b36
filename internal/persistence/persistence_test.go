package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/ticket-escalation/internal/config"
)

func TestDisabledDependencies(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	pg, err := NewPostgres(ctx, config.PostgresConfig{}, logger)
	require.NoError(t, err)
	assert.False(t, pg.Enabled())
	assert.True(t, errors.Is(pg.Ping(ctx), ErrNotConfigured))
	pg.Close()

	rd := NewRedis(ctx, config.RedisConfig{}, logger)
	assert.False(t, rd.Enabled())
	assert.True(t, errors.Is(rd.Ping(ctx), ErrNotConfigured))
	rd.Close()

	assert.NoError(t, RunMigrations(ctx, nil, "migrations", logger))
}
