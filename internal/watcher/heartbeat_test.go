package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeat_BeatResetsStalenessAndReconnectCount(t *testing.T) {
	h := newHeartbeat(time.Second, 3, slog.Default(), nil, nil)
	h.reconnects = 2
	h.lastBeat = time.Now().Add(-time.Hour)

	h.beat()

	assert.Equal(t, 0, h.reconnects)
	assert.Less(t, h.staleness(), time.Second)
}

func TestHeartbeat_ReconnectCallsRestartAndBeatsOnSuccess(t *testing.T) {
	var restarted atomic.Bool
	h := newHeartbeat(time.Millisecond, 3, slog.Default(), func(ctx context.Context) error {
		restarted.Store(true)
		return nil
	}, nil)
	h.lastBeat = time.Now().Add(-time.Hour)

	h.reconnect(context.Background())

	assert.True(t, restarted.Load())
	assert.Equal(t, 1, h.reconnects)
}

func TestHeartbeat_AbandonsAfterMaxReconnects(t *testing.T) {
	var abandoned atomic.Bool
	h := newHeartbeat(time.Millisecond, 2, slog.Default(), func(ctx context.Context) error {
		return nil
	}, func() {
		abandoned.Store(true)
	})
	h.reconnects = 2

	h.reconnect(context.Background())

	assert.True(t, abandoned.Load())
}

func TestHeartbeat_ReconnectCountsFailedRestartAttempt(t *testing.T) {
	h := newHeartbeat(time.Millisecond, 3, slog.Default(), func(ctx context.Context) error {
		return assert.AnError
	}, nil)

	h.reconnect(context.Background())

	assert.Equal(t, 1, h.reconnects)
}

func TestHeartbeat_StopCancelsSupervisor(t *testing.T) {
	h := newHeartbeat(time.Millisecond, 3, slog.Default(), func(ctx context.Context) error { return nil }, nil)
	h.start(context.Background())
	h.stop()
	assert.NotNil(t, h.cancel)
}
