// Package locker provides the mutual exclusion used to keep background jobs from
// overlapping, within one process or across instances sharing Redis.
package locker

import (
	"context"
	"sync"
	"time"
)

// ReleaseFunc gives a held lock back
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named, expiring locks without blocking.
type Locker interface {
	// TryLock returns ok=false when the lock is held elsewhere.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release ReleaseFunc, ok bool, err error)
}

// Local is an in-process Locker. TTLs are ignored since a crashed holder takes the
// whole process with it.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an empty Local locker
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// TryLock implements Locker
func (l *Local) TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}
	return func(context.Context) error {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
		return nil
	}, true, nil
}
