package hellovoter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HELLOVOTER_DB_PATH", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 12345*time.Millisecond, cfg.RetryDelay)
	require.Equal(t, 10, cfg.MaxAttempts)
	require.Equal(t, 666*time.Millisecond, cfg.ProgressPeriod)
	require.Equal(t, 600*time.Millisecond, cfg.OutOfHoursGrace)
	require.Equal(t, "en-US", cfg.Locale)
	require.True(t, strings.HasSuffix(cfg.DBPath, "hellovoter.db"))
	require.True(t, cfg.Telemetry.Enabled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HELLOVOTER_DB_PATH", "/tmp/hv.db")
	t.Setenv("HELLOVOTER_RETRY_DELAY", "2s")
	t.Setenv("HELLOVOTER_LATITUDE", "40.7")
	t.Setenv("HELLOVOTER_OTEL_ENDPOINT", "http://collector:4318")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "/tmp/hv.db", cfg.DBPath)
	require.Equal(t, 2*time.Second, cfg.RetryDelay)
	require.Equal(t, 40.7, cfg.Latitude)
	require.Equal(t, "http://collector:4318", cfg.Telemetry.Endpoint)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("HELLOVOTER_RETRY_DELAY", "soon")
	_, err := LoadConfig()
	require.Error(t, err)
}
