package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePingLoss(t *testing.T) {
	output := "4 packets transmitted, 4 received, 0% packet loss, time 3005ms\n"
	assert.Equal(t, 0.0, parsePingLoss(output))

	output = "4 packets transmitted, 2 received, 50% packet loss, time 3005ms\n"
	assert.Equal(t, 50.0, parsePingLoss(output))

	assert.Equal(t, -1.0, parsePingLoss("no match here"))
}

func TestParsePingAvgRTT(t *testing.T) {
	output := "rtt min/avg/max/mdev = 10.123/15.456/20.789/2.345 ms\n"
	assert.Equal(t, 15.456, parsePingAvgRTT(output))

	assert.Equal(t, -1.0, parsePingAvgRTT("no match here"))
}

func TestDeriveCapabilities_AllFalseByDefault(t *testing.T) {
	report := &Report{
		Capabilities:  make(map[string]bool),
		CanonicalTags: make(map[string]any),
	}
	deriveCapabilities(report)

	assert.False(t, report.Capabilities["docker"])
	assert.False(t, report.Capabilities["zfs"])
	assert.False(t, report.Capabilities["swag"])
	assert.False(t, report.Capabilities["vms"])
	assert.False(t, report.Capabilities["gpu"])
}

func TestDeriveCapabilities_SwagFromProxyConfsCount(t *testing.T) {
	report := &Report{
		Capabilities:    make(map[string]bool),
		CanonicalTags:   make(map[string]any),
		ProxyConfsCount: 3,
	}
	deriveCapabilities(report)
	assert.True(t, report.Capabilities["swag"])
}

func TestDeriveCapabilities_CanonicalPathsFromFirstEntries(t *testing.T) {
	report := &Report{
		Capabilities:  make(map[string]bool),
		CanonicalTags: make(map[string]any),
		ComposeDirs:   []string{"/opt/stack1", "/opt/stack2"},
		AppdataDirs:   []string{"/mnt/appdata"},
	}
	deriveCapabilities(report)

	assert.Equal(t, "/opt/stack1", report.CanonicalTags["docker_compose_path"])
	assert.Equal(t, []string{"/opt/stack1", "/opt/stack2"}, report.CanonicalTags["all_docker_compose_paths"])
	assert.Equal(t, "/mnt/appdata", report.CanonicalTags["docker_appdata_path"])
}
