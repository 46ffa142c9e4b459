package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jmagar/fleetctl/internal/analyzer"
	"github.com/jmagar/fleetctl/internal/audit"
	"github.com/jmagar/fleetctl/internal/cache"
	"github.com/jmagar/fleetctl/internal/cliout"
	"github.com/jmagar/fleetctl/internal/collect"
	"github.com/jmagar/fleetctl/internal/config"
	"github.com/jmagar/fleetctl/internal/device"
	"github.com/jmagar/fleetctl/internal/eventbus"
	"github.com/jmagar/fleetctl/internal/logging"
	"github.com/jmagar/fleetctl/internal/metrics"
	"github.com/jmagar/fleetctl/internal/registry"
	"github.com/jmagar/fleetctl/internal/sshpool"
	"github.com/jmagar/fleetctl/internal/watcher"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fleetctl",
	Short: "Agentless infrastructure monitoring and control plane",
	Long: `fleetctl drives an SSH-managed Linux fleet without installing an agent
on any monitored host: it executes a catalog of vetted read-only and
control commands over pooled SSH ControlMaster connections, caches their
results, watches remote config files for drift, and runs a composite
device analysis probe.`,
	SilenceUsage: true,
}

var (
	flagConfigFile string
	flagLogLevel   string
	flagLogFormat  string
	flagFormat     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to fleetctl.yaml (default: search ./ and $HOME/.config/fleetctl)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format override: text, json")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fleetctl %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	watchCmd.AddCommand(watchStartCmd)
	watchCmd.AddCommand(watchStopCmd)

	collectCmd.Flags().String("device", "", "device hostname or id (required)")
	collectCmd.Flags().StringSlice("param", nil, "command parameter as key=value, repeatable")
	collectCmd.Flags().Bool("force-refresh", false, "bypass the cache for this call")
	_ = collectCmd.MarkFlagRequired("device")

	analyzeCmd.Flags().String("device", "", "device hostname or id (required)")
	analyzeCmd.Flags().Bool("include-processes", false, "include the top-processes probe step")
	_ = analyzeCmd.MarkFlagRequired("device")

	watchStartCmd.Flags().String("device", "", "device hostname or id (required)")
	watchStartCmd.Flags().StringSlice("path", nil, "explicit path to watch, repeatable (default: device tags then fallback set)")
	_ = watchStartCmd.MarkFlagRequired("device")

	watchStopCmd.Flags().String("device", "", "device hostname or id (required)")
	_ = watchStopCmd.MarkFlagRequired("device")
}

// core bundles every collaborator a subcommand needs, built once per
// invocation from the loaded Config, mirroring the teacher's run()
// wiring a single ssh.Master/state.State/manager.Manager together.
type core struct {
	cfg      *config.Config
	registry *registry.Registry
	cache    *cache.Cache
	pool     *sshpool.Pool
	devices  device.Store
	audit    audit.Sink
	bus      *eventbus.Bus
	metrics  *metrics.Registry
	service  *collect.Service
	analyzer *analyzer.Analyzer
	watcher  *watcher.Watcher
	closeFn  func()
}

func newCore() (*core, error) {
	loader := config.NewLoader(flagConfigFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}

	logFormat := logging.FormatText
	if cfg.LogFormat == "json" {
		logFormat = logging.FormatJSON
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: logFormat})

	reg := registry.NewWithCatalog()
	ch := cache.New()
	devices := device.NewMemStore()

	knownHostsPath := cfg.KnownHostsPath
	if strings.HasPrefix(knownHostsPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			knownHostsPath = filepath.Join(home, knownHostsPath[2:])
		}
	}

	pool := sshpool.New(sshpool.Options{
		PerHostConcurrency:    cfg.MaxConnectionsPerHost,
		GlobalConcurrency:     cfg.MaxConcurrentOperations,
		HealthInterval:        time.Duration(cfg.HealthIntervalSeconds) * time.Second,
		Logger:                logger,
		StrictHostKeyChecking: cfg.StrictHostKeyChecking,
		KnownHostsPath:        knownHostsPath,
	})

	var auditSink audit.Sink
	var closeFn func()
	switch cfg.AuditSink {
	case "file":
		f, err := os.OpenFile(cfg.AuditFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit file %s: %w", cfg.AuditFilePath, err)
		}
		auditSink = audit.NewFileSink(f)
		closeFn = func() { _ = f.Close() }
	default:
		auditSink = audit.NewMemSink()
	}

	bus := eventbus.New()

	var metricsReg *metrics.Registry
	if cfg.MetricsEnabled {
		metricsReg = metrics.New(prometheus.DefaultRegisterer)
	}

	svc := collect.New(collect.Options{
		Registry:       reg,
		Cache:          ch,
		Pool:           pool,
		Devices:        devices,
		Audit:          auditSink,
		Bus:            bus,
		Logger:         logger,
		Metrics:        metricsReg,
		DefaultTimeout: time.Duration(cfg.DefaultTimeoutSeconds) * time.Second,
	})

	an := analyzer.New(pool, devices, logger)

	w := watcher.New(watcher.Options{
		Pool:              pool,
		Devices:           devices,
		Bus:               bus,
		Logger:            logger,
		HeartbeatInterval: time.Duration(cfg.WatchHeartbeatIntervalSeconds) * time.Second,
		PollInterval:      time.Duration(cfg.WatchPollIntervalSeconds) * time.Second,
		MaxReconnects:     cfg.WatchMaxReconnectAttempts,
	})

	return &core{
		cfg:      cfg,
		registry: reg,
		cache:    ch,
		pool:     pool,
		devices:  devices,
		audit:    auditSink,
		bus:      bus,
		metrics:  metricsReg,
		service:  svc,
		analyzer: an,
		watcher:  w,
		closeFn:  closeFn,
	}, nil
}

func (c *core) Close() {
	c.pool.Close()
	c.watcher.StopAll()
	if c.closeFn != nil {
		c.closeFn()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

var collectCmd = &cobra.Command{
	Use:   "collect <operation>",
	Short: "Run one registered operation against a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCore()
		if err != nil {
			return err
		}
		defer c.Close()

		deviceRef, _ := cmd.Flags().GetString("device")
		rawParams, _ := cmd.Flags().GetStringSlice("param")
		forceRefresh, _ := cmd.Flags().GetBool("force-refresh")

		params := registry.ParamsFromKV(rawParams)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.cfg.DefaultTimeoutSeconds+10)*time.Second)
		defer cancel()

		result := c.service.Collect(ctx, args[0], deviceRef, params, forceRefresh, 0, nil)

		format := cliout.Format(flagFormat)
		if !format.Valid() {
			return fmt.Errorf("invalid --format: %s", flagFormat)
		}
		fmt.Print(cliout.FormatResult(result, format))
		if !result.Success {
			return fmt.Errorf("collect failed: %s", result.ErrorMessage)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the composite device analysis probe",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCore()
		if err != nil {
			return err
		}
		defer c.Close()

		deviceRef, _ := cmd.Flags().GetString("device")
		includeProcesses, _ := cmd.Flags().GetBool("include-processes")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		report, err := c.analyzer.Analyze(ctx, deviceRef, analyzer.Options{
			IncludeProcesses:       includeProcesses,
			StoreResults:           true,
			SMARTMonitoringEnabled: c.cfg.SMARTMonitoringEnabled,
			SMARTRequireSudo:       c.cfg.SMARTRequireSudo,
			SMARTGracefulFallback:  c.cfg.SMARTGracefulFallback,
		})
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		fmt.Printf("device:       %s\n", report.DeviceID)
		fmt.Printf("reachable:    %v (loss=%.0f%% rtt=%.1fms)\n", report.Reachable, report.PacketLoss, report.AvgRTTMs)
		fmt.Printf("ssh_ok:       %v\n", report.SSHOK)
		if report.FatalError != "" {
			fmt.Printf("fatal_error:  %s\n", report.FatalError)
			return nil
		}
		fmt.Printf("capabilities: %v\n", report.Capabilities)
		if len(report.StepErrors) > 0 {
			fmt.Printf("step_errors:  %v\n", report.StepErrors)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage remote file-watch sessions",
}

var watchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start watching a device's configuration files",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCore()
		if err != nil {
			return err
		}

		deviceRef, _ := cmd.Flags().GetString("device")
		paths, _ := cmd.Flags().GetStringSlice("path")

		ctx, cancel := signalContext()
		defer cancel()

		if err := c.watcher.StartWatching(ctx, deviceRef, paths); err != nil {
			c.Close()
			return fmt.Errorf("start watching: %w", err)
		}
		fmt.Printf("watching %s, press Ctrl+C to stop\n", deviceRef)

		<-ctx.Done()
		c.Close()
		return nil
	},
}

var watchStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop watching a device (no-op against a separate running process; documents the API for an embedding program)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCore()
		if err != nil {
			return err
		}
		defer c.Close()

		deviceRef, _ := cmd.Flags().GetString("device")
		if err := c.watcher.StopWatching(deviceRef); err != nil {
			return fmt.Errorf("stop watching: %w", err)
		}
		return nil
	},
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the command catalog",
}

func init() {
	registryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every registered operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore()
			if err != nil {
				return err
			}
			defer c.Close()

			format := cliout.Format(flagFormat)
			if !format.Valid() {
				return fmt.Errorf("invalid --format: %s", flagFormat)
			}
			fmt.Print(cliout.FormatRegistry(c.registry.All(), format))
			return nil
		},
	})
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection-service statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCore()
		if err != nil {
			return err
		}
		defer c.Close()

		format := cliout.Format(flagFormat)
		if !format.Valid() {
			return fmt.Errorf("invalid --format: %s", flagFormat)
		}
		fmt.Print(cliout.FormatStats(c.service.Statistics(), format))
		return nil
	},
}
