package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publishes fanout targets to a per-user channel, following
// the PublishUser/UserChannel shape of a notifications.Notifier. It gives
// the Broadcaster seam a concrete, optional wire-up; the hub itself
// remains single-process.
type RedisBroadcaster struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisBroadcaster(rdb *redis.Client, log *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb, log: log}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, userID string, frame Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Subscribe pattern-subscribes to every per-user channel (chat:user:*) and
// invokes onFrame with the decoded frame and the channel's user id for each
// message; what onFrame does with it is up to the caller.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, onFrame func(userID string, frame Frame)) {
	sub := b.rdb.PSubscribe(ctx, "chat:user:*")
	ch := sub.Channel()
	go func() {
		for msg := range ch {
			var frame Frame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				b.log.Warn("failed to decode broadcaster frame", "error", err)
				continue
			}
			userID := msg.Channel[len("chat:user:"):]
			onFrame(userID, frame)
		}
	}()
}

// UserChannel derives the per-user pub/sub channel name.
func UserChannel(userID string) string {
	return "chat:user:" + userID
}
