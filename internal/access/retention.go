package access

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/audit"
)

// SessionPruner deletes sessions older than a cutoff.
type SessionPruner interface {
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionWorker periodically removes sessions older than maxAge.
type RetentionWorker struct {
	sessions SessionPruner
	audit    audit.Logger
	logger   *slog.Logger
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewRetentionWorker(sessions SessionPruner, auditLogger audit.Logger, logger *slog.Logger, maxAge, interval time.Duration) *RetentionWorker {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &RetentionWorker{
		sessions: sessions,
		audit:    auditLogger,
		logger:   logger,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the worker loop
func (w *RetentionWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session retention worker started", "interval", w.interval, "max_age", w.maxAge)

	w.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session retention worker stopped")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

// PruneOnce deletes expired sessions and returns how many were removed.
func (w *RetentionWorker) PruneOnce(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.maxAge)
	deleted, err := w.sessions.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		if err := w.audit.Log(ctx, audit.Event{
			EventType: audit.EventSessionsPruned,
			Success:   true,
			Metadata:  map[string]string{"deleted": strconv.Itoa(deleted)},
		}); err != nil {
			w.logger.Warn("audit log failed", "error", err)
		}
	}

	return deleted, nil
}

func (w *RetentionWorker) prune(ctx context.Context) {
	deleted, err := w.PruneOnce(ctx)
	if err != nil {
		w.logger.Error("failed to prune sessions", "error", err)
		return
	}
	w.logger.Debug("session retention completed", "deleted", deleted)
}
