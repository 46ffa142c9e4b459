// Package config loads the fleet control plane's runtime configuration:
// pool sizing, cache defaults, SMART flags, watcher tunables, and
// known-hosts policy. It generalizes the teacher's single-host Config
// struct (one SSH target, one log level) into a fleet-wide settings
// object bound through viper so the same fields can come from a YAML
// file, FLEETCTL_-prefixed environment variables, or Cobra flags, with
// that precedence order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the fleet control plane's runtime configuration.
type Config struct {
	// LogLevel controls logging verbosity: trace, debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `mapstructure:"log_format"`

	// MaxConnectionsPerHost bounds concurrent SSH sessions to one host.
	MaxConnectionsPerHost int `mapstructure:"max_connections_per_host"`
	// MaxConcurrentOperations bounds total in-flight execute() calls
	// fleet-wide (the pool's global semaphore weight).
	MaxConcurrentOperations int64 `mapstructure:"max_concurrent_operations"`
	// HealthIntervalSeconds is how often the pool's health monitor
	// checks each ControlMaster.
	HealthIntervalSeconds int `mapstructure:"health_interval_seconds"`

	// DefaultTimeoutSeconds is collect()'s fallback effective timeout
	// when neither a call-level override nor the command definition
	// specifies one.
	DefaultTimeoutSeconds int `mapstructure:"default_timeout_seconds"`
	// DefaultCacheTTLSeconds is loaded and defaulted here but not read by
	// any component: collect() caches with each command definition's own
	// TTL, and a definition with no TTL is not cached.
	DefaultCacheTTLSeconds int `mapstructure:"default_cache_ttl_seconds"`

	// SMARTMonitoringEnabled toggles the drive-health probe entirely.
	SMARTMonitoringEnabled bool `mapstructure:"smart_monitoring_enabled"`
	// SMARTRequireSudo prefixes smartctl with sudo.
	SMARTRequireSudo bool `mapstructure:"smart_require_sudo"`
	// SMARTGracefulFallback downgrades a permission failure to an
	// empty SMART block instead of a per-drive failure.
	SMARTGracefulFallback bool `mapstructure:"smart_graceful_fallback"`

	// WatchHeartbeatIntervalSeconds is the file-watch supervisor's
	// staleness check period (spec default 30s).
	WatchHeartbeatIntervalSeconds int `mapstructure:"watch_heartbeat_interval_seconds"`
	// WatchPollIntervalSeconds is the polling-mode fallback period.
	WatchPollIntervalSeconds int `mapstructure:"watch_poll_interval_seconds"`
	// WatchMaxReconnectAttempts caps the heartbeat supervisor's
	// exponential-backoff reconnect attempts before abandoning a
	// session (spec default 5).
	WatchMaxReconnectAttempts int `mapstructure:"watch_max_reconnect_attempts"`

	// StrictHostKeyChecking makes each ControlMaster start with
	// StrictHostKeyChecking=yes (and UserKnownHostsFile=KnownHostsPath
	// when set) instead of accept-new; the system ssh binary performs
	// the check.
	StrictHostKeyChecking bool   `mapstructure:"strict_host_key_checking"`
	KnownHostsPath        string `mapstructure:"known_hosts_path"`

	// AuditSink selects the audit backend: "mem" or "file".
	AuditSink string `mapstructure:"audit_sink"`
	// AuditFilePath is the JSON-lines append target when AuditSink is
	// "file".
	AuditFilePath string `mapstructure:"audit_file_path"`

	// MetricsEnabled registers the Prometheus collectors in
	// internal/metrics against the default registerer.
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// Defaults mirrors the constructor zero-value fallbacks used throughout
// the core (sshpool.New, collect.New, watcher.New), so a Config loaded
// with no file and no environment overrides still behaves sanely.
func Defaults() Config {
	return Config{
		LogLevel:                      "info",
		LogFormat:                     "text",
		MaxConnectionsPerHost:         4,
		MaxConcurrentOperations:       20,
		HealthIntervalSeconds:         30,
		DefaultTimeoutSeconds:         30,
		DefaultCacheTTLSeconds:        300,
		SMARTMonitoringEnabled:        true,
		SMARTRequireSudo:              false,
		SMARTGracefulFallback:         true,
		WatchHeartbeatIntervalSeconds: 30,
		WatchPollIntervalSeconds:      30,
		WatchMaxReconnectAttempts:     5,
		StrictHostKeyChecking:         false,
		KnownHostsPath:                "~/.ssh/known_hosts",
		AuditSink:                     "mem",
		AuditFilePath:                 "fleetctl-audit.jsonl",
		MetricsEnabled:                true,
	}
}

// Validate checks that loaded values are usable.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s (valid: text, json)", c.LogFormat)
	}
	if c.MaxConnectionsPerHost <= 0 {
		return fmt.Errorf("max_connections_per_host must be positive, got %d", c.MaxConnectionsPerHost)
	}
	if c.MaxConcurrentOperations <= 0 {
		return fmt.Errorf("max_concurrent_operations must be positive, got %d", c.MaxConcurrentOperations)
	}
	if c.AuditSink != "mem" && c.AuditSink != "file" {
		return fmt.Errorf("invalid audit_sink: %s (valid: mem, file)", c.AuditSink)
	}
	if c.AuditSink == "file" && c.AuditFilePath == "" {
		return fmt.Errorf("audit_file_path is required when audit_sink=file")
	}
	return nil
}

// Loader wraps a viper instance bound to a Cobra command tree, matching
// the teacher's pattern of flags as the narrow CLI surface and a struct
// as the thing every other package actually consumes.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader seeded with Defaults, a YAML config file
// search path, and FLEETCTL_-prefixed environment variable overrides.
func NewLoader(configFile string) *Loader {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("max_connections_per_host", defaults.MaxConnectionsPerHost)
	v.SetDefault("max_concurrent_operations", defaults.MaxConcurrentOperations)
	v.SetDefault("health_interval_seconds", defaults.HealthIntervalSeconds)
	v.SetDefault("default_timeout_seconds", defaults.DefaultTimeoutSeconds)
	v.SetDefault("default_cache_ttl_seconds", defaults.DefaultCacheTTLSeconds)
	v.SetDefault("smart_monitoring_enabled", defaults.SMARTMonitoringEnabled)
	v.SetDefault("smart_require_sudo", defaults.SMARTRequireSudo)
	v.SetDefault("smart_graceful_fallback", defaults.SMARTGracefulFallback)
	v.SetDefault("watch_heartbeat_interval_seconds", defaults.WatchHeartbeatIntervalSeconds)
	v.SetDefault("watch_poll_interval_seconds", defaults.WatchPollIntervalSeconds)
	v.SetDefault("watch_max_reconnect_attempts", defaults.WatchMaxReconnectAttempts)
	v.SetDefault("strict_host_key_checking", defaults.StrictHostKeyChecking)
	v.SetDefault("known_hosts_path", defaults.KnownHostsPath)
	v.SetDefault("audit_sink", defaults.AuditSink)
	v.SetDefault("audit_file_path", defaults.AuditFilePath)
	v.SetDefault("metrics_enabled", defaults.MetricsEnabled)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fleetctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/fleetctl")
		v.AddConfigPath("/etc/fleetctl")
	}

	v.SetEnvPrefix("FLEETCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlags binds a Cobra command's persistent flags to the same keys,
// so `--log-level` overrides the file/env value, matching the teacher's
// `runCmd.Flags().StringVar(&flagLogLevel, ...)` precedence but routed
// through viper instead of package-level vars.
func (l *Loader) BindFlags(cmd *cobra.Command) error {
	bindings := map[string]string{
		"log-level":                 "log_level",
		"log-format":                "log_format",
		"max-connections-per-host":  "max_connections_per_host",
		"max-concurrent-operations": "max_concurrent_operations",
		"smart-monitoring-enabled":  "smart_monitoring_enabled",
		"smart-require-sudo":        "smart_require_sudo",
		"smart-graceful-fallback":   "smart_graceful_fallback",
		"audit-sink":                "audit_sink",
		"audit-file-path":           "audit_file_path",
		"metrics-enabled":           "metrics_enabled",
	}
	for flag, key := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the config file (if present; a missing optional file is
// not an error) and unmarshals the merged file/env/flag values.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// WatchReload registers a callback invoked every time the active config
// file changes on disk, using fsnotify (via viper's own watcher) for the
// local hot-reload path — distinct from internal/watcher's remote,
// SSH-streamed inotify sessions, which observe files on monitored
// devices rather than the control plane's own config file.
func (l *Loader) WatchReload(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			return
		}
		if err := cfg.Validate(); err != nil {
			return
		}
		onChange(&cfg)
	})
	l.v.WatchConfig()
}
