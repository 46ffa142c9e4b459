package analyzer

import "fmt"

// smartctlCommand builds the graceful-fallback chain spec.md §4.6
// requires: with fallback enabled, always try sudo first, then plain
// smartctl, then emit the access-denied sentinel so a permission failure
// never aborts the drive, independent of requireSudo; without fallback, a
// single smartctl invocation is used (sudo or plain per requireSudo) and a
// permission failure propagates as a step error instead.
func smartctlCommand(device string, requireSudo, gracefulFallback bool) string {
	plain := fmt.Sprintf("smartctl -a %s", device)
	sudo := fmt.Sprintf("sudo %s", plain)

	switch {
	case gracefulFallback:
		return fmt.Sprintf("%s || %s || echo SMART_ACCESS_DENIED", sudo, plain)
	case requireSudo:
		return sudo
	default:
		return plain
	}
}
