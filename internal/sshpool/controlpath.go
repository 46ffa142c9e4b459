package sshpool

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// DeriveControlPath generates a stable control socket path for an SSH
// host: the same (host,port) always maps to the same socket path, so a
// borrowed Master is always reused rather than racing a second one into
// existence.
func DeriveControlPath(host string) (string, error) {
	if !strings.HasPrefix(host, "ssh://") {
		return "", fmt.Errorf("host must be in ssh://user@host format, got: %s", host)
	}

	hostPart := strings.TrimPrefix(host, "ssh://")
	if hostPart == "" {
		return "", fmt.Errorf("host cannot be empty after ssh:// prefix")
	}

	hash := sha256.Sum256([]byte(host))
	hashStr := fmt.Sprintf("%x", hash[:8])

	return fmt.Sprintf("/tmp/fleetctl-%s.sock", hashStr), nil
}
