package game

import (
	"context"
	"time"

	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/logging"
	"go.uber.org/zap"
)

// RunIdleWorker ends sessions nobody has touched for SessionIdleSeconds.
// With Redis the deadlines live in the IdleSet sorted set so any instance
// may reap them; without it each instance scans its own sessions.
func RunIdleWorker(ctx context.Context, m *SessionManager, cfg *config.Config) error {
	log := logging.Named("idle")
	if m == nil || cfg == nil {
		log.Warn("manager or config missing; idle worker not started")
		return nil
	}

	poll := time.Duration(cfg.IdleWorkerPollInterval) * time.Second
	if poll <= 0 {
		poll = 15 * time.Second
	}
	log.Info("idle worker started", zap.Duration("poll", poll), zap.Int("idle_seconds", cfg.SessionIdleSeconds))

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("idle worker stopping")
			return nil
		case <-ticker.C:
			n, err := m.ReapIdle(ctx)
			if err != nil {
				log.Warn("failed to reap idle sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("ended idle sessions", zap.Int("count", n), zap.Int("live", m.Count()))
			}
		}
	}
}
