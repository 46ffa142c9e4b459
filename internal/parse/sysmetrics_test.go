package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemInfo(t *testing.T) {
	output := "MemTotal:       16384000 kB\nMemFree:         1024000 kB\n"
	info := ParseMemInfo(output)
	assert.Equal(t, int64(16384000), info["MemTotal"])
	assert.Equal(t, int64(1024000), info["MemFree"])
}

func TestParseLoadAvg(t *testing.T) {
	la, ok := ParseLoadAvg("0.50 0.40 0.30 2/150 12345\n")
	require.True(t, ok)
	assert.Equal(t, 0.50, la.Load1)
	assert.Equal(t, 2, la.RunnableProcesses)
	assert.Equal(t, 150, la.TotalProcesses)
	assert.Equal(t, 12345, la.LastPID)
}

func TestParseProcStatCPU(t *testing.T) {
	output := "cpu  1000 200 300 9000 50 0 10 0 0 0\ncpu0 500 100 150 4500 25 0 5 0 0 0\n"
	cpu, ok := ParseProcStatCPU(output)
	require.True(t, ok)
	assert.Equal(t, int64(1000), cpu.User)
	assert.Equal(t, int64(9000), cpu.Idle)
}

func TestParseDF(t *testing.T) {
	output := "Filesystem     Size  Used Avail Use% Mounted on\n/dev/sda1       20G   10G   10G  50% /\n"
	disks := ParseDF(output)
	require.Len(t, disks, 1)
	assert.Equal(t, "/dev/sda1", disks[0].Filesystem)
	assert.Equal(t, "/", disks[0].MountedOn)
}

func TestParseProcNetDev(t *testing.T) {
	output := "Inter-|   Receive                                                |  Transmit\n" +
		" face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed\n" +
		"  eth0: 1000      10    0    0    0     0          0         0     2000      20    0    0    0     0       0          0\n"
	counters := ParseProcNetDev(output)
	require.Len(t, counters, 1)
	assert.Equal(t, "eth0", counters[0].Interface)
	assert.Equal(t, int64(1000), counters[0].RxBytes)
	assert.Equal(t, int64(2000), counters[0].TxBytes)
}
