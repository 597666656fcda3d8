package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshots stores one snapshot per cart under cart:<id>. Every save
// restarts the key's TTL.
type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshots(client *redis.Client, ttl time.Duration) *RedisSnapshots {
	return &RedisSnapshots{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSnapshots) Load(ctx context.Context, cartID string) (Snapshot, error) {
	b, err := r.client.Get(ctx, snapshotKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get: %w", err)
	}

	return DecodeSnapshot(b)
}

func (r *RedisSnapshots) Save(ctx context.Context, cartID string, snap Snapshot) error {
	b, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, snapshotKey(cartID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func snapshotKey(cartID string) string {
	return "cart:" + cartID
}
