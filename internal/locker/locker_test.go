package locker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_TryLock(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, ok, err := l.TryLock(ctx, "reaper", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "reaper", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	_, ok, _ = l.TryLock(ctx, "announce:1", time.Minute)
	assert.True(t, ok, "other keys are independent")

	require.NoError(t, release(ctx))
	_, ok, _ = l.TryLock(ctx, "reaper", time.Minute)
	assert.True(t, ok)
}
