package worker

import (
	"context"
	"time"

	"github.com/grga023/latice-erp/internal/util"

	"go.uber.org/zap"
)

// Checker runs one due-date scan cycle.
type Checker interface {
	RunCheck(ctx context.Context) error
}

// Locker guards the scan against concurrent instances. Locking is
// best-effort: a lock error never blocks the scan.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

const scanLockKey = "due-date-scan"

// NotifierWorker runs the due-date scan on a fixed interval, starting with an
// immediate scan. The scan itself is idempotent (the dedup log, not the
// timer, decides what gets alerted), so early or duplicate runs are harmless.
type NotifierWorker struct {
	checker  Checker
	locker   Locker
	interval time.Duration
	logger   *zap.Logger
}

// NewNotifierWorker creates a new notifier worker. locker may be nil when no
// Redis is configured.
func NewNotifierWorker(checker Checker, locker Locker, interval time.Duration) *NotifierWorker {
	return &NotifierWorker{
		checker:  checker,
		locker:   locker,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the scan loop until the context is cancelled.
func (w *NotifierWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker", zap.Duration("interval", w.interval))

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Notification worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *NotifierWorker) runOnce(ctx context.Context) {
	if w.locker != nil {
		acquired, err := w.locker.AcquireLock(ctx, scanLockKey, w.interval/2)
		if err != nil {
			w.logger.Warn("Scan lock unavailable, proceeding without it", zap.Error(err))
		} else if !acquired {
			w.logger.Info("Scan lock held elsewhere, skipping cycle")
			return
		} else {
			defer func() {
				if err := w.locker.ReleaseLock(ctx, scanLockKey); err != nil {
					w.logger.Warn("Failed to release scan lock", zap.Error(err))
				}
			}()
		}
	}

	if err := w.checker.RunCheck(ctx); err != nil {
		w.logger.Error("Due-date scan failed", zap.Error(err))
	}
}
