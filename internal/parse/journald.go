package parse

import (
	"encoding/json"
	"strconv"
	"strings"
)

// JournalPriority maps journald's numeric PRIORITY field to its syslog
// severity name, exported as an explicit table per the analyzer's log
// handling rather than left as a one-line inline mapping.
var JournalPriority = map[int]string{
	0: "emerg",
	1: "alert",
	2: "crit",
	3: "err",
	4: "warning",
	5: "notice",
	6: "info",
	7: "debug",
}

// JournalEntry is one parsed line from `journalctl --output=json`.
type JournalEntry struct {
	Timestamp string
	Unit      string
	Priority  int
	Severity  string
	Message   string
	Hostname  string
	PID       string
	Raw       map[string]any
}

type journalLine struct {
	Message           string `json:"MESSAGE"`
	Priority          string `json:"PRIORITY"`
	SyslogIdentifier  string `json:"SYSLOG_IDENTIFIER"`
	Unit              string `json:"_SYSTEMD_UNIT"`
	Hostname          string `json:"_HOSTNAME"`
	PID               string `json:"_PID"`
	RealtimeTimestamp string `json:"__REALTIME_TIMESTAMP"`
}

// ParseJournald parses one JSON object per line, skipping lines that
// fail to decode rather than aborting the whole batch.
func ParseJournald(stdout string) []JournalEntry {
	var entries []JournalEntry

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var jl journalLine
		if err := json.Unmarshal([]byte(line), &jl); err != nil {
			continue
		}

		var raw map[string]any
		_ = json.Unmarshal([]byte(line), &raw)

		priority := -1
		if jl.Priority != "" {
			if p, err := strconv.Atoi(jl.Priority); err == nil {
				priority = p
			}
		}

		unit := jl.Unit
		if unit == "" {
			unit = jl.SyslogIdentifier
		}

		entries = append(entries, JournalEntry{
			Timestamp: jl.RealtimeTimestamp,
			Unit:      unit,
			Priority:  priority,
			Severity:  JournalPriority[priority],
			Message:   jl.Message,
			Hostname:  jl.Hostname,
			PID:       jl.PID,
			Raw:       raw,
		})
	}

	return entries
}
