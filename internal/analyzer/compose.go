package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/jmagar/fleetctl/internal/sshpool"
)

// discoverComposeDirs runs the bounded find spec.md §4.6 names: at most
// 10 docker-compose.y{a,}ml parent directories under /home /opt /srv,
// grounded on the original compose_deployment service's directory-walk
// pattern, expressed here as a single remote find instead of a
// directory-tree walk in the core process.
func discoverComposeDirs(ctx context.Context, pool *sshpool.Pool, sshURL string) []string {
	cmd := `find /home /opt /srv -maxdepth 4 -type f \( -iname 'docker-compose.yml' -o -iname 'docker-compose.yaml' \) 2>/dev/null | head -10`
	res, err := pool.Execute(ctx, sshURL, cmd, 20*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	return dirsFromFileList(res.Stdout)
}

// discoverAppdataDirs globs the known appdata locations spec.md §4.6
// names, returning the directories that actually exist.
func discoverAppdataDirs(ctx context.Context, pool *sshpool.Pool, sshURL string) []string {
	cmd := `for d in /mnt/appdata /opt/appdata /home/*/appdata; do [ -d "$d" ] && echo "$d"; done 2>/dev/null`
	res, err := pool.Execute(ctx, sshURL, cmd, 15*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// detectSwag checks for a running container whose name contains "swag"
// and counts proxy-confs entries, the two signals spec.md §4.6's swag
// capability tag is derived from.
func detectSwag(ctx context.Context, pool *sshpool.Pool, sshURL string) (running bool, proxyConfsCount int) {
	res, err := pool.Execute(ctx, sshURL, `docker ps --format '{{.Names}}' 2>/dev/null | grep -i swag`, 10*time.Second, 0, 1)
	running = err == nil && res.ExitCode == 0 && strings.TrimSpace(res.Stdout) != ""

	res, err = pool.Execute(ctx, sshURL, `find / -maxdepth 6 -type d -iname 'proxy-confs' 2>/dev/null | head -5`, 15*time.Second, 0, 1)
	if err == nil && res.ExitCode == 0 {
		for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
			if strings.TrimSpace(line) != "" {
				proxyConfsCount++
			}
		}
	}
	return running, proxyConfsCount
}

func dirsFromFileList(output string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, "/")
		if idx < 0 {
			continue
		}
		dir := line[:idx]
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}
