package logging

import (
	"context"
	"log/slog"
	"time"
)

// LogPruner deletes log records older than a cutoff.
type LogPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartCleanup runs a daily goroutine that deletes system_logs older than
// the retention period.
func StartCleanup(pruner LogPruner, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Prune(context.Background(), pruner, retention)
			case <-done:
				return
			}
		}
	}()
}

func Prune(ctx context.Context, pruner LogPruner, retention time.Duration) {
	deleted, err := pruner.DeleteBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		slog.Warn("log cleanup failed", "error", err)
	} else if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}
