package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmartctlCommand_GracefulFallbackWithSudo(t *testing.T) {
	cmd := smartctlCommand("/dev/sda", true, true)
	assert.Equal(t, "sudo smartctl -a /dev/sda || smartctl -a /dev/sda || echo SMART_ACCESS_DENIED", cmd)
}

func TestSmartctlCommand_GracefulFallbackNoSudo(t *testing.T) {
	cmd := smartctlCommand("/dev/sda", false, true)
	assert.Equal(t, "sudo smartctl -a /dev/sda || smartctl -a /dev/sda || echo SMART_ACCESS_DENIED", cmd)
}

func TestSmartctlCommand_SudoNoFallback(t *testing.T) {
	cmd := smartctlCommand("/dev/sda", true, false)
	assert.Equal(t, "sudo smartctl -a /dev/sda", cmd)
}

func TestSmartctlCommand_PlainNoFallback(t *testing.T) {
	cmd := smartctlCommand("/dev/sda", false, false)
	assert.Equal(t, "smartctl -a /dev/sda", cmd)
}
