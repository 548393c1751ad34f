// Package dedup remembers which one-shot events were already emitted.
package dedup

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Deduper reports whether a key is seen for the first time and records it.
type Deduper interface {
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// LRU keeps the most recent keys in process memory. Evicted keys may fire again,
// which is acceptable for best-effort notifications.
type LRU struct {
	cache *lru.Cache
}

var _ Deduper = (*LRU)(nil)

// NewLRU creates an LRU deduper holding up to size keys
func NewLRU(size int) (*LRU, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: c}, nil
}

// FirstSeen implements Deduper
func (d *LRU) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	seen, _ := d.cache.ContainsOrAdd(key, struct{}{})
	return !seen, nil
}

// Redis shares seen keys between instances with SET NX
type Redis struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ Deduper = (*Redis)(nil)

// NewRedis creates a Redis deduper; keys are stored under prefix
func NewRedis(rdb goredis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// FirstSeen implements Deduper
func (d *Redis) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "dedup setnx")
	}
	return ok, nil
}
