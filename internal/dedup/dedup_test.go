package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_FirstSeen(t *testing.T) {
	ctx := context.Background()
	d, err := NewLRU(2)
	require.NoError(t, err)

	first, err := d.FirstSeen(ctx, "order-1:15m", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, _ := d.FirstSeen(ctx, "order-1:15m", time.Hour)
	assert.False(t, again)

	other, _ := d.FirstSeen(ctx, "order-1:5m", time.Hour)
	assert.True(t, other)
}

func TestNewLRU_RejectsNonPositiveSize(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
}
