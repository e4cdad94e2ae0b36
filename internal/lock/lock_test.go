package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExcludesSecondHolder(t *testing.T) {
	l := NewLocal(time.Minute)
	ctx := context.Background()

	unlock, ok, err := l.Lock(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Lock(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = l.Lock(ctx, 8)
	assert.True(t, ok, "other tickets are independent")

	unlock()
	unlock()
	_, ok, _ = l.Lock(ctx, 7)
	assert.True(t, ok)
}

func TestLocalMarkerExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal(time.Second)
	l.nowFn = func() time.Time { return now }

	_, ok, _ := l.Lock(context.Background(), 1)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = l.Lock(context.Background(), 1)
	assert.True(t, ok)
}

func TestStaleUnlockKeepsNewMarker(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal(time.Second)
	l.nowFn = func() time.Time { return now }

	staleUnlock, ok, _ := l.Lock(context.Background(), 1)
	require.True(t, ok)
	now = now.Add(2 * time.Second)
	_, ok, _ = l.Lock(context.Background(), 1)
	require.True(t, ok)

	staleUnlock()
	_, ok, _ = l.Lock(context.Background(), 1)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "escalation:lock:ticket:42", key("escalation:lock:ticket:", 42))
}
