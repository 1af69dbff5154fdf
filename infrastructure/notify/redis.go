package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("notify: redis ping: %w", err)
	}
	return client, nil
}

// Redis fans hints out through a Redis pub/sub channel so several server
// processes sharing one database refresh each other's tabs. Local subscribers
// receive hints through an embedded Hub fed by Run.
type Redis struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedis(client *redis.Client, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, hub: NewHub()}
}

func (r *Redis) Publish(ctx context.Context) error {
	if err := r.client.Publish(ctx, r.channel, Refresh).Err(); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context) <-chan string {
	return r.hub.Subscribe(ctx)
}

// Run relays messages from the Redis channel to local subscribers until ctx
// is done. Payloads other than Refresh are ignored.
func (r *Redis) Run(ctx context.Context) error {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", r.channel, err)
	}
	slog.Info("notify: listening", slog.String("channel", r.channel))

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if msg.Payload != Refresh {
				slog.Warn("notify: unexpected payload", slog.String("payload", msg.Payload))
				continue
			}
			r.hub.broadcast(Refresh)
		}
	}
}
