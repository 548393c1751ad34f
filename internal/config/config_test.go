package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverMongoDB, cfg.Store.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Reservation.TTL)
	assert.Equal(t, time.Minute, cfg.Reaper.Interval)
	assert.Equal(t, "count", cfg.Prize.DuplicatePolicy)
	assert.Equal(t,
		[]time.Duration{30 * time.Minute, 15 * time.Minute, 5 * time.Minute, time.Minute},
		cfg.Reaper.WarningCheckpoints())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("RESERVATION_TTL", "20m")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 20*time.Minute, cfg.Reservation.TTL)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
