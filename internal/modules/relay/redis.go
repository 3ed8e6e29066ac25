// README: Redis pub/sub backed Hub, shared by every API instance.
package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "gazflow:relay:"

type RedisHub struct {
	redis *redis.Client
}

func NewRedisHub(redis *redis.Client) *RedisHub {
	return &RedisHub{redis: redis}
}

func (h *RedisHub) Notify(ctx context.Context, subjects ...Subject) error {
	if len(subjects) == 0 {
		return nil
	}
	pipe := h.redis.Pipeline()
	for _, s := range subjects {
		pipe.Publish(ctx, channelPrefix+string(s), "changed")
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe returns once Redis has confirmed the subscription, so a Notify
// issued after it returns is not missed.
func (h *RedisHub) Subscribe(ctx context.Context, subject Subject) (*Subscription, error) {
	ps := h.redis.Subscribe(ctx, channelPrefix+string(subject))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	sub := newSubscription(func() { _ = ps.Close() })
	msgs := ps.Channel()
	go func() {
		defer close(sub.ch)
		for range msgs {
			sub.signal()
		}
	}()
	return sub, nil
}
