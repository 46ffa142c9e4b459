// Package collect implements the unified data collection service: the
// single entry point every remote read goes through. It mirrors the
// teacher's Manager shape — injected collaborators wired together at
// construction time, a rolling performance-metrics struct guarded by its
// own mutex — generalized from "reconcile Docker port forwards" to
// "resolve a command, consult the cache, execute via the pool, validate,
// parse, audit, and emit".
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmagar/fleetctl/internal/audit"
	"github.com/jmagar/fleetctl/internal/cache"
	"github.com/jmagar/fleetctl/internal/collecterr"
	"github.com/jmagar/fleetctl/internal/device"
	"github.com/jmagar/fleetctl/internal/eventbus"
	"github.com/jmagar/fleetctl/internal/metrics"
	"github.com/jmagar/fleetctl/internal/registry"
	"github.com/jmagar/fleetctl/internal/sshpool"
)

// activeOperation tracks one in-flight collect call for active_operations().
type activeOperation struct {
	OperationID   string
	OperationName string
	DeviceID      string
	Params        map[string]string
	StartedAt     time.Time
}

// Service is the unified data collection orchestrator.
type Service struct {
	registry *registry.Registry
	cache    *cache.Cache
	pool     *sshpool.Pool
	devices  device.Store
	audit    audit.Sink
	bus      *eventbus.Bus
	logger   *slog.Logger
	metrics  *metrics.Registry
	stats    *Stats

	defaultTimeout time.Duration

	activeMu sync.RWMutex
	active   map[string]activeOperation
}

// Options configures a new Service. Metrics may be nil if the caller has
// no Prometheus registry to publish against.
type Options struct {
	Registry       *registry.Registry
	Cache          *cache.Cache
	Pool           *sshpool.Pool
	Devices        device.Store
	Audit          audit.Sink
	Bus            *eventbus.Bus
	Logger         *slog.Logger
	Metrics        *metrics.Registry
	DefaultTimeout time.Duration
}

func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	return &Service{
		registry:       opts.Registry,
		cache:          opts.Cache,
		pool:           opts.Pool,
		devices:        opts.Devices,
		audit:          opts.Audit,
		bus:            opts.Bus,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		stats:          NewStats(),
		defaultTimeout: opts.DefaultTimeout,
		active:         make(map[string]activeOperation),
	}
}

// Collect implements the collect(operation_name, device_id, ...) contract.
func (s *Service) Collect(ctx context.Context, operationName, deviceRef string, params map[string]string, forceRefresh bool, timeoutOverride time.Duration, auditMetadata map[string]any) *Result {
	operationID := uuid.New().String()
	start := time.Now()

	result := &Result{
		OperationID:   operationID,
		OperationName: operationName,
		DeviceID:      deviceRef,
		Metadata:      map[string]any{},
	}

	// Step 2: look up the command.
	def := s.registry.Get(operationName)
	if def == nil {
		result.ErrorCode = string(collecterr.UnknownOperation)
		result.ErrorMessage = fmt.Sprintf("unknown operation: %s", operationName)
		return result
	}

	// Step 3: cache lookup.
	if def.CacheTTLSeconds > 0 && !forceRefresh {
		if value, hit := s.cache.Get(operationName, deviceRef, string(def.Category), params, false); hit {
			result.Success = true
			result.Cached = true
			result.Data = value
			result.ValidationPassed = true
			result.ExecutionTimeMs = time.Since(start).Milliseconds()
			s.finishCollect(result, true, auditMetadata)
			return result
		}
	}

	s.trackActive(operationID, operationName, deviceRef, params, start)
	defer s.untrackActive(operationID)

	// Step 4: resolve the device.
	dev, err := s.devices.Resolve(deviceRef)
	if err != nil {
		result.ErrorCode = string(collecterr.DeviceNotFound)
		result.ErrorMessage = err.Error()
		s.finishCollect(result, false, auditMetadata)
		return result
	}
	result.DeviceID = dev.ID

	// Step 5: substitute parameters.
	command, ok := s.registry.Format(operationName, params)
	if !ok {
		result.ErrorCode = string(collecterr.InvalidParameters)
		result.ErrorMessage = "missing required parameter for command template"
		s.finishCollect(result, false, auditMetadata)
		return result
	}
	result.CommandUsed = command

	// Step 6: execute via the pool.
	timeout := timeoutOverride
	if timeout <= 0 {
		timeout = time.Duration(def.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	sshURL := device.SSHURL(dev)
	execRes, execErr := s.pool.Execute(ctx, sshURL, command, timeout, def.RetryCount, def.RetryDelaySeconds)

	if execErr != nil {
		result.ErrorMessage = execErr.Error()
		result.ErrorCode = classifySSHError(execErr)
		s.finishCollect(result, false, auditMetadata)
		return result
	}

	// Step 7: determine success.
	exitOK := def.ExpectedExitCodes[execRes.ExitCode]
	validationOK := s.registry.ValidateOutput(operationName, execRes.Stdout)
	errPatterns := s.registry.DetectErrors(operationName, execRes.Stdout)

	result.ValidationPassed = exitOK && validationOK && len(errPatterns) == 0
	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	if !result.ValidationPassed {
		result.Success = false
		result.ErrorCode = string(collecterr.CommandExecutionFailed)
		result.ErrorMessage = execRes.Stderr
		s.finishCollect(result, false, auditMetadata)
		return result
	}

	result.Success = true
	result.Data = execRes.Stdout

	// Step 8: write to cache.
	if def.CacheTTLSeconds > 0 && execRes.Stdout != "" {
		s.cache.Set(operationName, deviceRef, string(def.Category), params, execRes.Stdout, def.CacheTTLSeconds, nil)
	}

	s.finishCollect(result, false, auditMetadata)
	return result
}

func classifySSHError(err error) string {
	if cErr, ok := err.(*collecterr.Error); ok {
		return string(cErr.Code)
	}
	return string(collecterr.SSHCommandError)
}

// finishCollect runs steps 9-12: best-effort audit, performance sample,
// event emission, and running counters — common to every exit path except
// an unknown operation, which returns before any of them.
func (s *Service) finishCollect(result *Result, cached bool, auditMetadata map[string]any) {
	if s.audit != nil {
		auditID, err := s.audit.Append(audit.Record{
			OperationID:     result.OperationID,
			OperationName:   result.OperationName,
			DeviceID:        result.DeviceID,
			Timestamp:       time.Now(),
			Success:         result.Success,
			ExecutionTimeMs: result.ExecutionTimeMs,
			DataSizeBytes:   dataSize(result.Data),
			Cached:          cached,
			CommandUsed:     result.CommandUsed,
			ErrorMessage:    result.ErrorMessage,
			Metadata:        auditMetadata,
		})
		if err == nil {
			result.AuditID = auditID
		} else {
			s.logger.Warn("audit write failed", "operation_id", result.OperationID, "error", err.Error())
		}
	}

	s.stats.Record(sample{
		Timestamp:   time.Now(),
		ServiceName: "collect",
		Success:     result.Success,
		Cached:      cached,
		DurationMs:  result.ExecutionTimeMs,
	})

	if s.metrics != nil {
		successLabel := "false"
		if result.Success {
			successLabel = "true"
		}
		s.metrics.CollectTotal.WithLabelValues(result.OperationName, successLabel).Inc()
		s.metrics.CollectDuration.WithLabelValues(result.OperationName).Observe(float64(result.ExecutionTimeMs) / 1000.0)
		if cached {
			s.metrics.CacheHits.Inc()
		} else {
			s.metrics.CacheMisses.Inc()
		}
	}

	// Step 11: publish only on success AND not cached.
	if result.Success && !cached && s.bus != nil {
		s.bus.Emit(eventbus.TopicDataCollected, map[string]any{
			"operation_id":      result.OperationID,
			"operation_name":    result.OperationName,
			"device_id":         result.DeviceID,
			"timestamp":         time.Now(),
			"execution_time_ms": result.ExecutionTimeMs,
		})
	}
}

func dataSize(data any) int {
	if s, ok := data.(string); ok {
		return len(s)
	}
	return 0
}

func (s *Service) trackActive(operationID, operationName, deviceID string, params map[string]string, start time.Time) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	s.active[operationID] = activeOperation{
		OperationID:   operationID,
		OperationName: operationName,
		DeviceID:      deviceID,
		Params:        params,
		StartedAt:     start,
	}
}

func (s *Service) untrackActive(operationID string) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	delete(s.active, operationID)
}

// ActiveOperations lists in-flight collect calls.
func (s *Service) ActiveOperations() []activeOperation {
	s.activeMu.RLock()
	defer s.activeMu.RUnlock()
	out := make([]activeOperation, 0, len(s.active))
	for _, op := range s.active {
		out = append(out, op)
	}
	return out
}

// Statistics returns the counters/cache-stats/registry-size contract.
func (s *Service) Statistics() Snapshot {
	snap := s.stats.Snapshot()
	snap.RegistrySize = len(s.registry.All())
	return snap
}

// InvalidateCache exposes the cache's scoped invalidation to callers
// that need to force a re-collect (e.g. after a config change).
func (s *Service) InvalidateCache(scope, value string) int {
	switch scope {
	case "device":
		return s.cache.InvalidateDevice(value)
	case "category":
		return s.cache.InvalidateByType(value)
	default:
		if s.cache.Invalidate(scope, value) {
			return 1
		}
		return 0
	}
}
