package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper runs when no interval is
// configured.
const DefaultSweepInterval = time.Minute

// ExpireCallback is called for every session removed by the sweeper.
type ExpireCallback func(chatID int64)

// StartSweeper runs a background goroutine that periodically discards idle
// sessions until ctx is cancelled.
func StartSweeper(ctx context.Context, mgr *Manager, interval time.Duration, onExpire ExpireCallback) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "timeout", mgr.Timeout())

		for {
			select {
			case <-ticker.C:
				sweepExpired(mgr, onExpire)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpired(mgr *Manager, onExpire ExpireCallback) {
	expired := mgr.Sweep(mgr.now())
	if len(expired) == 0 {
		return
	}

	for _, chatID := range expired {
		slog.Info("Session expired", "chat_id", chatID)
		if onExpire != nil {
			onExpire(chatID)
		}
	}

	slog.Info("Session sweep completed", "expired", len(expired), "remaining", mgr.Len())
}
