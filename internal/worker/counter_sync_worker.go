package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/session"
)

// StartCounterSync runs the session counter reconciliation on a fixed
// interval until the context is cancelled. An immediate first run corrects
// any drift left over from a previous process.
func StartCounterSync(ctx context.Context, syncer *session.Syncer, interval time.Duration, logger *zap.Logger) {
	if syncer == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	go func() {
		if err := syncer.Run(ctx); err != nil {
			logger.Warn("initial counter sync failed", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := syncer.Run(ctx); err != nil {
					logger.Warn("counter sync failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RegisterEventHandlers subscribes counter maintenance to auth events. Bulk
// revocation triggers an out-of-band reconciliation since per-device
// decrements are not tracked for it.
func RegisterEventHandlers(dispatcher events.Dispatcher, syncer *session.Syncer, logger *zap.Logger) {
	if dispatcher == nil || syncer == nil {
		return
	}
	dispatcher.Subscribe(events.EventSessionsRevoked, func(ctx context.Context, event events.Event) error {
		if err := syncer.Run(ctx); err != nil {
			logger.Warn("post-revocation counter sync failed", zap.Error(err))
			return err
		}
		return nil
	})
}
