package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZPoolList(t *testing.T) {
	output := "tank\t1T\t500G\t500G\tONLINE\n"
	pools := ParseZPoolList(output)
	require.Len(t, pools, 1)
	assert.Equal(t, "tank", pools[0].Name)
	assert.Equal(t, "ONLINE", pools[0].Health)
}

func TestParseZFSList(t *testing.T) {
	output := "tank/data\t100G\t400G\t99G\t/tank/data\n"
	datasets := ParseZFSList(output)
	require.Len(t, datasets, 1)
	assert.Equal(t, "tank/data", datasets[0].Name)
	assert.Equal(t, "/tank/data", datasets[0].Mountpoint)
}

func TestParseZFSSnapshots(t *testing.T) {
	output := "tank/data@2026-01-01\t10G\tMon Jan  1 00:00 2026\n"
	snaps := ParseZFSSnapshots(output)
	require.Len(t, snaps, 1)
	assert.Equal(t, "tank/data@2026-01-01", snaps[0].Name)
}
