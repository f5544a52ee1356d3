package zarrutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zarrutil.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
default_units = "nm"

[storage]
anonymous = true
region = "us-west-2"
endpoint = "minio.internal:9000"
access_key = "AKIA"
secret_key = "secret"
timeout_seconds = 30
requests_per_second = 50.0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nm", cfg.DefaultUnits)
	assert.True(t, cfg.Storage.Anonymous)
	assert.Equal(t, "us-west-2", cfg.Storage.Region)
	assert.Equal(t, 30, cfg.Storage.TimeoutSeconds)
	assert.Equal(t, 50.0, cfg.Storage.RequestsPerSecond)

	optFns, err := cfg.Options()
	require.NoError(t, err)
	opts := applyOptions(optFns)
	assert.True(t, opts.storeOpts.Anonymous)
	assert.Equal(t, "minio.internal:9000", opts.storeOpts.Endpoint)
	assert.Equal(t, 30*time.Second, opts.storeOpts.Timeout)
	assert.Equal(t, "nm", opts.defaultUnits)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	optFns, err := cfg.Options()
	require.NoError(t, err)
	opts := applyOptions(optFns)
	assert.Equal(t, "unknown", opts.defaultUnits)
	assert.False(t, opts.storeOpts.Anonymous)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadConfigBadLogLevel(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `log_level = "loud"`))
	require.NoError(t, err)

	_, err = cfg.Options()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestApplyOptionsNilSafe(t *testing.T) {
	opts := applyOptions([]Option{
		nil,
		WithMetricsCollector(nil),
		WithLogger(nil),
		WithAnonymous(),
		WithCredentials("ak", "sk"),
		WithRequestsPerSecond(10),
	})
	assert.IsType(t, NoopMetricsCollector{}, opts.metricsCollector)
	assert.NotNil(t, opts.logger)
	assert.True(t, opts.storeOpts.Anonymous)
	assert.Equal(t, "ak", opts.storeOpts.AccessKey)
	assert.Equal(t, float64(10), opts.storeOpts.RequestsPerSecond)
}
