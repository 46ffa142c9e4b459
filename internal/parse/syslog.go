package parse

import "regexp"

// SyslogEntry is one parsed classic syslog line.
type SyslogEntry struct {
	Timestamp string
	Host      string
	Service   string
	PID       string
	Message   string
	Severity  string // always "info"; classic syslog carries no priority
}

// classicSyslogPattern matches "Mon  D HH:MM:SS host service[PID]: message",
// tolerating a missing PID per the wire-level contract.
var classicSyslogPattern = regexp.MustCompile(
	`^([A-Z][a-z]{2}\s+\d{1,2}\s\d{2}:\d{2}:\d{2})\s+(\S+)\s+([^:\[\s]+)(?:\[(\d+)\])?:\s?(.*)$`,
)

// ParseSyslog parses each line with the classic format regex. Lines that
// do not match are kept verbatim as opaque info-level messages rather
// than dropped, per the spec's tolerance requirement.
func ParseSyslog(stdout string) []SyslogEntry {
	var entries []SyslogEntry

	for _, line := range splitNonEmptyLines(stdout) {
		m := classicSyslogPattern.FindStringSubmatch(line)
		if m == nil {
			entries = append(entries, SyslogEntry{Message: line, Severity: "info"})
			continue
		}
		entries = append(entries, SyslogEntry{
			Timestamp: m[1],
			Host:      m[2],
			Service:   m[3],
			PID:       m[4],
			Message:   m[5],
			Severity:  "info",
		})
	}

	return entries
}
