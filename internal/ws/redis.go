package ws

import (
	"context"
	"encoding/json"

	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunEventSubscriber relays session events published by any instance to the
// manager's local handler. It returns when ctx is cancelled.
func RunEventSubscriber(ctx context.Context, rdb *redis.Client, mgr *game.SessionManager) error {
	log := logging.Named("ws")
	if rdb == nil {
		log.Info("redis not configured; session events stay local")
		return nil
	}

	pubsub := rdb.Subscribe(ctx, game.EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Info("session event subscriber started", zap.String("channel", game.EventsChannel))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev game.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("invalid session event payload", zap.Error(err))
				continue
			}
			if ev.SessionID == "" {
				continue
			}
			log.Debug("session event", zap.String("session", ev.SessionID), zap.String("kind", ev.Kind))
			mgr.Dispatch(ev)
		}
	}
}
