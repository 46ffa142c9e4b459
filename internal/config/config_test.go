package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_PassValidation(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositivePoolLimits(t *testing.T) {
	cfg := Defaults()
	cfg.MaxConnectionsPerHost = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_FileSinkRequiresPath(t *testing.T) {
	cfg := Defaults()
	cfg.AuditSink = "file"
	cfg.AuditFilePath = ""
	assert.Error(t, cfg.Validate())
}

func TestLoader_LoadWithoutFileUsesDefaults(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().MaxConnectionsPerHost, cfg.MaxConnectionsPerHost)
}

func TestLoader_LoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_connections_per_host: 2\nlog_level: debug\n"), 0o600))

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxConnectionsPerHost)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	t.Setenv("FLEETCTL_LOG_LEVEL", "warn")

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
