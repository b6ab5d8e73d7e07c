package journal

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rbaliyan/dispatch/codec"
)

// DefaultRedisCapacity bounds the Redis journal list when no capacity is
// given.
var DefaultRedisCapacity int64 = 10000

// Redis stores journal entries in a capped Redis list, newest at the
// head. Entries are MessagePack-encoded for compactness.
//
// Redis commands used:
//   - LPUSH: prepend entry
//   - LTRIM: enforce the retention cap
//   - LRANGE: list entries
//   - LLEN / DEL: count and clear
type Redis struct {
	client   redis.Cmdable
	key      string
	capacity int64
	codec    codec.Codec
}

// NewRedis creates a Redis-backed journal under the given key.
// capacity <= 0 uses DefaultRedisCapacity.
func NewRedis(client redis.Cmdable, key string, capacity int64) *Redis {
	if capacity <= 0 {
		capacity = DefaultRedisCapacity
	}
	return &Redis{
		client:   client,
		key:      "dispatch:journal:" + key,
		capacity: capacity,
		codec:    codec.Msgpack{},
	}
}

// Append encodes and prepends one entry, trimming to capacity.
func (r *Redis) Append(ctx context.Context, e *Entry) error {
	data, err := r.codec.Encode(e)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *Redis) List(ctx context.Context, limit int64) ([]*Entry, error) {
	if limit <= 0 {
		limit = r.capacity
	}
	raw, err := r.client.LRange(ctx, r.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("journal list: %w", err)
	}
	out := make([]*Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := r.codec.Decode([]byte(item), &e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}

// Count returns the number of retained entries.
func (r *Redis) Count(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}

// Clear deletes the journal list.
func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// Compile-time check
var _ Store = (*Redis)(nil)
