package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJournald_MapsPriority(t *testing.T) {
	line := `{"MESSAGE":"disk full","PRIORITY":"3","_SYSTEMD_UNIT":"nginx.service","_HOSTNAME":"host-a","_PID":"123"}`
	entries := ParseJournald(line)
	require.Len(t, entries, 1)
	assert.Equal(t, "err", entries[0].Severity)
	assert.Equal(t, "nginx.service", entries[0].Unit)
	assert.Equal(t, "disk full", entries[0].Message)
}

func TestParseJournald_SkipsUnparseableLines(t *testing.T) {
	input := "not json\n" + `{"MESSAGE":"ok","PRIORITY":"6"}`
	entries := ParseJournald(input)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Severity)
}

func TestParseJournald_FallsBackToSyslogIdentifier(t *testing.T) {
	line := `{"MESSAGE":"hi","PRIORITY":"6","SYSLOG_IDENTIFIER":"cron"}`
	entries := ParseJournald(line)
	require.Len(t, entries, 1)
	assert.Equal(t, "cron", entries[0].Unit)
}
