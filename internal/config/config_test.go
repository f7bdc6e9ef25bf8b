package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
)

func clearRelevantEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TCONNECT_BASE_URL", "TCONNECT_ACCESS_TOKEN", "TCONNECT_DEVICE_SERIAL",
		"NS_URL", "NS_SECRET",
		"DB_HOST", "DB_PORT", "REDIS_ADDR", "MQTT_BROKER",
		"SYNC_BASAL", "SYNC_PROFILE", "SKIP_ZERO_BASAL",
		"POLL_MIN_SLEEP", "POLL_NO_DATA_AFTER", "POLL_EXIT_ON_FATAL",
		"PRETEND", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearRelevantEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://tdcservices.tandemdiabetes.com", cfg.TConnect.BaseURL)
	assert.Empty(t, cfg.TConnect.DeviceSerial)
	assert.Equal(t, "http://localhost:1337", cfg.Nightscout.URL)

	// optional backends stay off until their address is configured
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.MQTT.Enabled)

	assert.True(t, cfg.Features.Basal)
	assert.True(t, cfg.Features.CgmReading)
	assert.False(t, cfg.Features.Profile)
	assert.False(t, cfg.Features.SkipZeroBasal)

	assert.Equal(t, 60*time.Second, cfg.Poller.MinSleep)
	assert.Equal(t, 10*time.Minute, cfg.Poller.MaxSleep)
	assert.Equal(t, 5*time.Minute, cfg.Poller.NoChangeSleep)
	assert.Equal(t, 3*time.Hour, cfg.Poller.NoDataAfter)
	assert.Equal(t, 6*time.Hour, cfg.Poller.NoWritesAfter)
	assert.Equal(t, 24*time.Hour, cfg.Poller.InitialLookback)
	assert.Equal(t, 5*time.Minute, cfg.Poller.WindowOverlap)
	assert.True(t, cfg.Poller.ExitOnFatal)

	assert.False(t, cfg.Pretend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Overrides(t *testing.T) {
	clearRelevantEnv(t)
	t.Setenv("TCONNECT_ACCESS_TOKEN", "tok123")
	t.Setenv("TCONNECT_DEVICE_SERIAL", "sn99")
	t.Setenv("NS_URL", "https://ns.example.com")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("SYNC_BASAL", "false")
	t.Setenv("SYNC_PROFILE", "true")
	t.Setenv("POLL_MIN_SLEEP", "30s")
	t.Setenv("POLL_NO_DATA_AFTER", "1h")
	t.Setenv("POLL_EXIT_ON_FATAL", "false")
	t.Setenv("PRETEND", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "tok123", cfg.TConnect.AccessToken)
	assert.Equal(t, "sn99", cfg.TConnect.DeviceSerial)
	assert.Equal(t, "https://ns.example.com", cfg.Nightscout.URL)

	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.True(t, cfg.MQTT.Enabled)

	assert.False(t, cfg.Features.Basal)
	assert.True(t, cfg.Features.Profile)

	assert.Equal(t, 30*time.Second, cfg.Poller.MinSleep)
	assert.Equal(t, time.Hour, cfg.Poller.NoDataAfter)
	assert.False(t, cfg.Poller.ExitOnFatal)
	assert.True(t, cfg.Pretend)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearRelevantEnv(t)
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("POLL_MIN_SLEEP", "soon")
	t.Setenv("PRETEND", "maybe")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 60*time.Second, cfg.Poller.MinSleep)
	assert.False(t, cfg.Pretend)
}
