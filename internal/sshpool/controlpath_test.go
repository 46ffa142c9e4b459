package sshpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveControlPath_Deterministic(t *testing.T) {
	host := "ssh://user@example.com"

	path1, err := DeriveControlPath(host)
	require.NoError(t, err)
	path2, err := DeriveControlPath(host)
	require.NoError(t, err)

	assert.Equal(t, path1, path2)
	assert.Contains(t, path1, "/tmp/fleetctl-")
	assert.Contains(t, path1, ".sock")
}

func TestDeriveControlPath_DifferentHosts(t *testing.T) {
	path1, err := DeriveControlPath("ssh://user@example.com")
	require.NoError(t, err)
	path2, err := DeriveControlPath("ssh://user@other.com")
	require.NoError(t, err)
	path3, err := DeriveControlPath("ssh://admin@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, path1, path2)
	assert.NotEqual(t, path1, path3)
	assert.NotEqual(t, path2, path3)
}

func TestDeriveControlPath_InvalidFormat(t *testing.T) {
	cases := []string{"user@example.com", "http://user@example.com", "ssh://", "ssh", ""}
	for _, host := range cases {
		path, err := DeriveControlPath(host)
		assert.Error(t, err)
		assert.Empty(t, path)
	}
}

func TestDeriveControlPath_PortAffectsPath(t *testing.T) {
	path1, err := DeriveControlPath("ssh://user@example.com:22")
	require.NoError(t, err)
	path2, err := DeriveControlPath("ssh://user@example.com:2222")
	require.NoError(t, err)
	assert.NotEqual(t, path1, path2)
}
