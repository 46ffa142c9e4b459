package sshpool

import (
	"fmt"
	"strings"
)

// ParseHost extracts the host and port from an SSH connection string with
// full IPv6 support. Input formats supported:
//   - ssh://user@host
//   - ssh://user@host:port
//   - ssh://user@[::1]:port (IPv6 with brackets)
//   - user@host / user@host:port (already stripped of the ssh:// scheme)
//
// Returns host in user@host form and port as a string, or "" if omitted.
func ParseHost(sshURL string) (host string, port string, err error) {
	hostPart := strings.TrimPrefix(sshURL, "ssh://")

	if hostPart == "" {
		return "", "", fmt.Errorf("empty host in SSH URL")
	}

	if idx := strings.Index(hostPart, "["); idx != -1 {
		closeBracketIdx := strings.Index(hostPart, "]")
		if closeBracketIdx == -1 {
			return "", "", fmt.Errorf("unclosed bracket in IPv6 address: %s", hostPart)
		}
		if closeBracketIdx < idx {
			return "", "", fmt.Errorf("invalid bracket order in IPv6 address: %s", hostPart)
		}

		if closeBracketIdx+1 < len(hostPart) {
			if hostPart[closeBracketIdx+1] != ':' {
				return "", "", fmt.Errorf("invalid format after IPv6 address: expected ':' but got '%c'", hostPart[closeBracketIdx+1])
			}
			port = hostPart[closeBracketIdx+2:]
			host = hostPart[:closeBracketIdx+1]
		} else {
			host = hostPart
		}
		return host, port, nil
	}

	if idx := strings.LastIndex(hostPart, ":"); idx != -1 {
		if strings.Count(hostPart, ":") > 1 {
			return "", "", fmt.Errorf("IPv6 addresses must use bracket notation: ssh://user@[::1]:port (got: %s)", sshURL)
		}
		port = hostPart[idx+1:]
		host = hostPart[:idx]
	} else {
		host = hostPart
	}

	return host, port, nil
}
