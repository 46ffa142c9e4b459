package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// heartbeat supervises one watchSession's liveness, directly modeled on
// sshpool's master health monitor: a ticker checks staleness, and a stale
// session is torn down and restarted with exponential backoff capped at
// maxReconnectAttempts, after which the session is abandoned.
type heartbeat struct {
	mu            sync.Mutex
	lastBeat      time.Time
	interval      time.Duration
	maxReconnects int
	reconnects    int
	logger        *slog.Logger
	cancel        context.CancelFunc
	restart       func(ctx context.Context) error
	abandon       func()
}

func newHeartbeat(interval time.Duration, maxReconnects int, logger *slog.Logger, restart func(ctx context.Context) error, abandon func()) *heartbeat {
	return &heartbeat{
		lastBeat:      time.Now(),
		interval:      interval,
		maxReconnects: maxReconnects,
		logger:        logger,
		restart:       restart,
		abandon:       abandon,
	}
}

// beat records a received event or successful poll.
func (h *heartbeat) beat() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastBeat = time.Now()
	h.reconnects = 0
}

func (h *heartbeat) staleness() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Since(h.lastBeat)
}

// start launches the supervisor goroutine. It checks every interval; once
// the last heartbeat is older than 2x interval, it attempts a reconnect
// with exponential backoff, abandoning the session after maxReconnects.
func (h *heartbeat) start(ctx context.Context) {
	supervisorCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-supervisorCtx.Done():
				return
			case <-ticker.C:
				if h.staleness() <= 2*h.interval {
					continue
				}
				h.reconnect(supervisorCtx)
			}
		}
	}()
}

func (h *heartbeat) reconnect(ctx context.Context) {
	h.mu.Lock()
	attempt := h.reconnects
	h.mu.Unlock()

	if attempt >= h.maxReconnects {
		h.logger.Warn("watch session abandoned after exhausting reconnect attempts", "attempts", attempt)
		if h.abandon != nil {
			h.abandon()
		}
		return
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(backoff):
	}

	h.mu.Lock()
	h.reconnects++
	h.mu.Unlock()

	if err := h.restart(ctx); err != nil {
		h.logger.Warn("watch session reconnect failed", "attempt", attempt+1, "error", err.Error())
		return
	}
	h.beat()
}

func (h *heartbeat) stop() {
	if h.cancel != nil {
		h.cancel()
	}
}
