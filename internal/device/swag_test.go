package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwagLocator_FindsFirstSwagHostByHostnameOrder(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev2", Hostname: "zeta", Tags: map[string]any{"swag": true}}))
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "alpha", Tags: map[string]any{"swag": true}}))
	require.NoError(t, s.Save(&Device{ID: "dev3", Hostname: "middle"}))

	loc := NewSwagLocator(s)
	found, ok := loc.Locate()
	require.True(t, ok)
	assert.Equal(t, "alpha", found.Hostname)
}

func TestSwagLocator_NoneFound(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "alpha"}))

	loc := NewSwagLocator(s)
	_, ok := loc.Locate()
	assert.False(t, ok)
}

func TestSwagLocator_CachesWithinTTL(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "alpha", Tags: map[string]any{"swag": true}}))

	loc := NewSwagLocator(s)
	now := time.Now()
	loc.now = func() time.Time { return now }

	first, _ := loc.Locate()

	// Add an earlier-sorted swag host; cached answer should still win
	// because the clock has not advanced past swagCacheTTL.
	require.NoError(t, s.Save(&Device{ID: "dev0", Hostname: "aaa", Tags: map[string]any{"swag": true}}))
	loc.now = func() time.Time { return now.Add(time.Minute) }

	second, _ := loc.Locate()
	assert.Equal(t, first.Hostname, second.Hostname)
}

func TestSwagLocator_RecomputesAfterTTLExpires(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "alpha", Tags: map[string]any{"swag": true}}))

	loc := NewSwagLocator(s)
	now := time.Now()
	loc.now = func() time.Time { return now }
	loc.Locate()

	require.NoError(t, s.Save(&Device{ID: "dev0", Hostname: "aaa", Tags: map[string]any{"swag": true}}))
	loc.now = func() time.Time { return now.Add(6 * time.Minute) }

	second, ok := loc.Locate()
	require.True(t, ok)
	assert.Equal(t, "aaa", second.Hostname)
}

func TestSwagLocator_InvalidateForcesRecompute(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "alpha", Tags: map[string]any{"swag": true}}))

	loc := NewSwagLocator(s)
	loc.Locate()

	require.NoError(t, s.Save(&Device{ID: "dev0", Hostname: "aaa", Tags: map[string]any{"swag": true}}))
	loc.Invalidate()

	second, ok := loc.Locate()
	require.True(t, ok)
	assert.Equal(t, "aaa", second.Hostname)
}
