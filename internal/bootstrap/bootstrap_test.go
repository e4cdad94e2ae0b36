package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/ticket-escalation/internal/config"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
)

func TestBuildFallsBackToInMemory(t *testing.T) {
	cfg := &config.Config{
		Escalation:   config.EscalationConfig{AtRiskPercent: 80, Workers: 2},
		Notification: config.NotificationConfig{Sink: config.SinkLog},
	}

	rt, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rt.Close()

	assert.False(t, rt.Postgres.Enabled())
	assert.False(t, rt.Redis.Enabled())

	report, err := rt.Service.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, escalation.TriggerManual, report.Trigger)
	assert.Zero(t, report.Evaluated)
}

func TestBuildRejectsRedisSinkWithoutRedis(t *testing.T) {
	cfg := &config.Config{Notification: config.NotificationConfig{Sink: config.SinkRedis}}

	_, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestBuildSeedsInMemoryStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tickets:
  - id: 7
    title: laptop
    priority: Low
    created_at: 2020-01-01T00:00:00Z
`), 0o600))
	cfg := &config.Config{
		App:          config.AppConfig{SeedFile: path},
		Escalation:   config.EscalationConfig{AtRiskPercent: 80},
		Notification: config.NotificationConfig{Sink: config.SinkLog},
	}

	rt, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rt.Close()

	view, err := rt.Service.SLAStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, view.Status.HasSLA)
}
