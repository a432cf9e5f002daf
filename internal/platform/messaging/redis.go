package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Yunusinusah/offline-voting/internal/shared/events"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher sends envelopes over Redis pub/sub on "<prefix><topic>".
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(ctx context.Context, url string, channelPrefix string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	// a failed publish is dropped, never retried behind the caller
	opts.MaxRetries = -1
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisPublisher{client: client, prefix: channelPrefix}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := p.client.Publish(ctx, p.prefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("publish redis message: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
