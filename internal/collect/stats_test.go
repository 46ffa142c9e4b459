package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_SnapshotAggregatesCounts(t *testing.T) {
	s := NewStats()
	s.Record(sample{Success: true, DurationMs: 100})
	s.Record(sample{Success: false, DurationMs: 200})
	s.Record(sample{Success: true, Cached: true, DurationMs: 10})

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.Total)
	assert.Equal(t, int64(2), snap.Successful)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.CacheMisses)
}

func TestStats_SnapshotComputesCacheHitRatio(t *testing.T) {
	s := NewStats()
	s.Record(sample{Success: true, Cached: true, DurationMs: 1})
	s.Record(sample{Success: true, Cached: false, DurationMs: 1})

	snap := s.Snapshot()
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
}

func TestStats_SnapshotTracksMinMaxAvgDuration(t *testing.T) {
	s := NewStats()
	s.Record(sample{Success: true, DurationMs: 100})
	s.Record(sample{Success: true, DurationMs: 300})

	snap := s.Snapshot()
	assert.Equal(t, int64(100), snap.MinDurationMs)
	assert.Equal(t, int64(300), snap.MaxDurationMs)
	assert.Equal(t, int64(200), snap.AvgDurationMs)
}

func TestStats_SnapshotWithNoSamplesIsZero(t *testing.T) {
	s := NewStats()
	snap := s.Snapshot()
	assert.Equal(t, int64(0), snap.Total)
	assert.Equal(t, float64(0), snap.CacheHitRatio)
}

func TestStats_RollingWindowCapsAtOneHundred(t *testing.T) {
	s := NewStats()
	for i := 0; i < 150; i++ {
		s.Record(sample{Success: true, DurationMs: int64(i)})
	}
	assert.Len(t, s.durations, 100)
}
