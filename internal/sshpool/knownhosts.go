package sshpool

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// VerifyKnownHost checks that host's key is already present in the given
// known_hosts file, used when an operator opts into strict host-key
// checking instead of the pool's default accept-new-on-first-use
// posture. It never mutates the known_hosts file.
func VerifyKnownHost(knownHostsPath, host string, key ssh.PublicKey) error {
	if knownHostsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		knownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return fmt.Errorf("load known_hosts at %s: %w", knownHostsPath, err)
	}

	addr := &fakeAddr{addr: host}
	if err := callback(host, addr, key); err != nil {
		return fmt.Errorf("host key verification failed for %s: %w", host, err)
	}
	return nil
}

// fakeAddr satisfies net.Addr so VerifyKnownHost can reuse the
// knownhosts.HostKeyCallback signature without opening a real connection;
// knownhosts.New only inspects the string form via String().
type fakeAddr struct{ addr string }

func (a *fakeAddr) Network() string { return "tcp" }
func (a *fakeAddr) String() string  { return a.addr }
