package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDockerPS(t *testing.T) {
	output := "CONTAINER ID\tNAMES\tSTATUS\tIMAGE\tPORTS\n" +
		"abc123\tweb\tUp 2 hours\tnginx:latest\t0.0.0.0:80->80/tcp\n" +
		"def456\tworker\tExited (0) 1 hour ago\tworker:latest\t\n"

	containers := ParseDockerPS(output)
	require.Len(t, containers, 2)
	assert.Equal(t, "abc123", containers[0].ID)
	assert.Equal(t, "web", containers[0].Names)
	assert.Equal(t, "def456", containers[1].ID)
	assert.Empty(t, containers[1].Ports)
}

func TestParseDockerInspect(t *testing.T) {
	output := `[{"Id":"abc123","Name":"/web"}]`
	out, err := ParseDockerInspect(output)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "abc123", out[0]["Id"])
}
