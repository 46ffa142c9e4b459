package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyslog_ClassicWithPID(t *testing.T) {
	line := "Jan 12 10:22:01 host-a sshd[1234]: Accepted publickey for root"
	entries := ParseSyslog(line)
	require.Len(t, entries, 1)
	assert.Equal(t, "host-a", entries[0].Host)
	assert.Equal(t, "sshd", entries[0].Service)
	assert.Equal(t, "1234", entries[0].PID)
	assert.Equal(t, "Accepted publickey for root", entries[0].Message)
}

func TestParseSyslog_MissingPID(t *testing.T) {
	line := "Jan  5 09:00:00 host-a cron: job started"
	entries := ParseSyslog(line)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].PID)
	assert.Equal(t, "cron", entries[0].Service)
}

func TestParseSyslog_UnparseableKeptAsOpaque(t *testing.T) {
	line := "this line matches nothing recognizable"
	entries := ParseSyslog(line)
	require.Len(t, entries, 1)
	assert.Equal(t, line, entries[0].Message)
	assert.Equal(t, "info", entries[0].Severity)
}
