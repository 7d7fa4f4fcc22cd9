package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
)

// RedisBroadcaster publishes every new notification on a Redis channel so
// other processes (websocket/SSE edges) can forward it to connected clients.
type RedisBroadcaster struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBroadcaster connects and pings Redis
func NewRedisBroadcaster(cfg shared.RedisConfig, log *logger.Logger) (*RedisBroadcaster, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisBroadcaster(rdb, channel, log), nil
}

func newRedisBroadcaster(rdb *goredis.Client, channel string, log *logger.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		log:     log.With("service", "RedisBroadcaster"),
		rdb:     rdb,
		channel: channel,
	}
}

// Broadcast publishes n as JSON
func (b *RedisBroadcaster) Broadcast(ctx context.Context, n shared.Notification) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis broadcaster not initialized")
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe forwards published notifications to onMsg until ctx is done.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, onMsg func(shared.Notification)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis broadcaster not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var n shared.Notification
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					b.log.Warn("bad notification payload", "error", err)
					continue
				}
				onMsg(n)
			}
		}
	}()

	return nil
}

func (b *RedisBroadcaster) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
