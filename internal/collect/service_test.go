package collect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/fleetctl/internal/audit"
	"github.com/jmagar/fleetctl/internal/cache"
	"github.com/jmagar/fleetctl/internal/collecterr"
	"github.com/jmagar/fleetctl/internal/device"
	"github.com/jmagar/fleetctl/internal/eventbus"
	"github.com/jmagar/fleetctl/internal/registry"
)

func newTestService(t *testing.T) (*Service, *device.MemStore) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(registry.CommandDefinition{
		Name:              "uptime",
		CommandTemplate:   "uptime",
		Category:          registry.CategorySystemInfo,
		CacheTTLSeconds:   60,
		ExpectedExitCodes: map[int]bool{0: true},
	}))
	require.NoError(t, reg.Register(registry.CommandDefinition{
		Name:            "tail_log",
		CommandTemplate: "tail -n {lines} /var/log/{service}.log",
		Category:        registry.CategoryLogs,
	}))

	devices := device.NewMemStore()
	require.NoError(t, devices.Save(&device.Device{ID: "dev1", Hostname: "host1", SSHUser: "root"}))

	svc := New(Options{
		Registry: reg,
		Cache:    cache.New(),
		Devices:  devices,
		Audit:    audit.NewMemSink(),
		Bus:      eventbus.New(),
	})
	return svc, devices
}

func TestCollect_UnknownOperation(t *testing.T) {
	svc, _ := newTestService(t)
	result := svc.Collect(context.Background(), "does_not_exist", "host1", nil, false, 0, nil)
	assert.False(t, result.Success)
	assert.Equal(t, string(collecterr.UnknownOperation), result.ErrorCode)
}

func TestCollect_DeviceNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	result := svc.Collect(context.Background(), "uptime", "ghost", nil, false, 0, nil)
	assert.False(t, result.Success)
	assert.Equal(t, string(collecterr.DeviceNotFound), result.ErrorCode)
}

func TestCollect_InvalidParameters(t *testing.T) {
	svc, _ := newTestService(t)
	result := svc.Collect(context.Background(), "tail_log", "host1", map[string]string{"lines": "50"}, false, 0, nil)
	assert.False(t, result.Success)
	assert.Equal(t, string(collecterr.InvalidParameters), result.ErrorCode)
}

func TestCollect_CacheHitShortCircuitsBeforeDeviceLookup(t *testing.T) {
	svc, _ := newTestService(t)
	svc.cache.Set("uptime", "host1", string(registry.CategorySystemInfo), nil, "up 3 days", 60, nil)

	result := svc.Collect(context.Background(), "uptime", "host1", nil, false, 0, nil)
	require.True(t, result.Success)
	assert.True(t, result.Cached)
	assert.Equal(t, "up 3 days", result.Data)
	assert.True(t, result.ValidationPassed)
}

func TestActiveOperations_EmptyByDefault(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Empty(t, svc.ActiveOperations())
}

func TestStatistics_ReflectsCacheHit(t *testing.T) {
	svc, _ := newTestService(t)
	svc.cache.Set("uptime", "host1", string(registry.CategorySystemInfo), nil, "up 3 days", 60, nil)
	svc.Collect(context.Background(), "uptime", "host1", nil, false, 0, nil)

	snap := svc.Statistics()
	assert.Equal(t, int64(1), snap.Total)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, 1.0, snap.CacheHitRatio)
	assert.Equal(t, 2, snap.RegistrySize)
}

func TestInvalidateCache_ByDevice(t *testing.T) {
	svc, _ := newTestService(t)
	svc.cache.Set("uptime", "host1", string(registry.CategorySystemInfo), nil, "up 3 days", 60, nil)
	removed := svc.InvalidateCache("device", "host1")
	assert.Equal(t, 1, removed)

	_, hit := svc.cache.Get("uptime", "host1", string(registry.CategorySystemInfo), nil, false)
	assert.False(t, hit)
}
