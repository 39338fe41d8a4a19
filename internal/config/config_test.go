package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "gateway_monitor", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "gateway/+/telemetry", cfg.MQTT.Topic)
	assert.Equal(t, "monitor:environment", cfg.Monitor.EnvironmentStream)
	assert.Equal(t, "gateway-monitor", cfg.Monitor.Group)
	assert.NotEmpty(t, cfg.Monitor.Consumer)
	assert.Equal(t, 10, cfg.Monitor.BatchCount)
	assert.Equal(t, 5*time.Second, cfg.Monitor.BlockTimeout)
	assert.Equal(t, "notification:push", cfg.Notification.PushStream)
	assert.Equal(t, time.Minute, cfg.Ingest.FlushInterval)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.OfflineThreshold)
	assert.Equal(t, 7, cfg.Scheduler.RetentionDays)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("MONITOR_DISCONNECT_STREAM", "mon:disc")
	t.Setenv("MONITOR_BLOCK_TIMEOUT", "30s")
	t.Setenv("OFFLINE_THRESHOLD", "15m")
	t.Setenv("STATISTIC_RETENTION_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.Equal(t, "mon:disc", cfg.Monitor.DisconnectStream)
	assert.Equal(t, 30*time.Second, cfg.Monitor.BlockTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.OfflineThreshold)
	assert.Equal(t, 30, cfg.Scheduler.RetentionDays)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("OFFLINE_THRESHOLD", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.OfflineThreshold)
}

func TestMonitorStreams(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	streams := cfg.MonitorStreams()
	require.Len(t, streams, 5)
	assert.Equal(t, []string{
		"monitor:environment",
		"monitor:influenza",
		"monitor:absence",
		"monitor:disconnect",
		"monitor:intruder",
	}, streams)
}
