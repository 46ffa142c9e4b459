package sshpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	cases := []struct {
		retryDelaySeconds float64
		attempt           int
		want              time.Duration
	}{
		{1, 0, 1 * time.Second},
		{1, 1, 1500 * time.Millisecond},
		{1, 2, 2250 * time.Millisecond},
		{2, 0, 2 * time.Second},
		{2, 1, 3 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, calculateBackoff(tc.retryDelaySeconds, tc.attempt))
	}
}

func TestCalculateBackoff_ZeroDelayDefaultsToOneSecond(t *testing.T) {
	assert.Equal(t, 1*time.Second, calculateBackoff(0, 0))
}

func TestNew_DefaultsApplied(t *testing.T) {
	p := New(Options{})
	assert.Equal(t, 4, p.perHostLimit)
	assert.Equal(t, 30*time.Second, p.reapInterval)
}

func TestNew_CustomLimits(t *testing.T) {
	p := New(Options{PerHostConcurrency: 2, GlobalConcurrency: 5})
	assert.Equal(t, 2, p.perHostLimit)
}
