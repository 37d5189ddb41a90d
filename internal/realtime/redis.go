package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay shares envelopes between API instances over a pub/sub channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

func NewRedisRelay(client *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("r.client.Publish -> %w", err)
	}

	return nil
}

// Subscribe confirms the subscription and then delivers envelopes in the
// background until ctx is cancelled.
func (r *RedisRelay) Subscribe(ctx context.Context, deliver func(Envelope)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("sub.Receive -> %w", err)
	}

	go func() {
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					zap.L().Warn("dropping malformed realtime envelope", zap.Error(err))
					continue
				}
				deliver(env)
			}
		}
	}()

	return nil
}
