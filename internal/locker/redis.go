package locker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// ErrLockLost is returned by a release whose lock expired or was taken over
var ErrLockLost = errors.New("lock expired before release")

// Redis is a Locker backed by SET NX with a unique token per holder
type Redis struct {
	rdb goredis.UniversalClient
}

var _ Locker = (*Redis)(nil)

// NewRedis creates a Redis locker
func NewRedis(rdb goredis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

// TryLock implements Locker
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, bool, error) {
	token := uuid.New().String()
	ok, err := r.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrapf(err, "acquire lock %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, r.rdb, []string{key}, token).Int64()
		if err != nil {
			return errors.Wrapf(err, "release lock %s", key)
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}, true, nil
}
