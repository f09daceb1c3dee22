package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"compressd/models"
)

// Redis publishes progress events on a pub/sub channel; the bot transport
// subscribes and relays to end users.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(addr, channel string) *Redis {
	return &Redis{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

func (r *Redis) Notify(ctx context.Context, ev models.ProgressEvent) error {
	data, err := json.Marshal(payload(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
