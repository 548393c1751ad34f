// Package clock abstracts the current time so expiry logic can be tested.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real returns a Clock backed by time.Now in UTC
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

// Fake is a manually advanced clock
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake set to t
func NewFake(t time.Time) *Fake { return &Fake{now: t} }

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set moves the clock to t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
