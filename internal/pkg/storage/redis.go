package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/bacbo-signals/internal/pkg/models"
)

const DefaultRedisChannel = "bacbo:snapshots"

// RedisBroadcaster publishes every recorded snapshot as JSON on a pub/sub channel.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

func NewRedisBroadcaster(ctx context.Context, addr, password string, db int, channel string) (*RedisBroadcaster, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Check connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisBroadcaster(client, channel), nil
}

func newRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBroadcaster{client: client, channel: channel}
}

func (r *RedisBroadcaster) Name() string { return "redis" }

func (r *RedisBroadcaster) WriteSnapshot(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Close closes connection with Redis
func (r *RedisBroadcaster) Close() error {
	return r.client.Close()
}
