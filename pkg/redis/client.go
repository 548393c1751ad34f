package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key prefixes shared by every instance of the service
const (
	PrefixLock    = "lottery:lock:"
	PrefixWarning = "lottery:warn:"
)

// LockKey builds the distributed lock key for a named job, e.g. lottery:lock:reaper
func LockKey(name string) string { return PrefixLock + name }

// WarningKey builds the de-duplication key of one expiry warning
func WarningKey(k string) string { return PrefixWarning + k }

// NewClient creates a Redis client and checks the connection within timeout.
func NewClient(ctx context.Context, addr, password string, db int, timeout time.Duration) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(c).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
