package sshpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHost_WithoutPort(t *testing.T) {
	host, port, err := ParseHost("ssh://user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", host)
	assert.Empty(t, port)
}

func TestParseHost_WithPort(t *testing.T) {
	host, port, err := ParseHost("ssh://user@example.com:2222")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", host)
	assert.Equal(t, "2222", port)
}

func TestParseHost_AlreadyParsed(t *testing.T) {
	host, port, err := ParseHost("user@host:3333")
	require.NoError(t, err)
	assert.Equal(t, "user@host", host)
	assert.Equal(t, "3333", port)
}

func TestParseHost_IPv6Bracketed(t *testing.T) {
	host, port, err := ParseHost("ssh://user@[::1]:2222")
	require.NoError(t, err)
	assert.Equal(t, "user@[::1]", host)
	assert.Equal(t, "2222", port)
}

func TestParseHost_IPv6WithoutPort(t *testing.T) {
	host, port, err := ParseHost("ssh://user@[2001:db8::1]")
	require.NoError(t, err)
	assert.Equal(t, "user@[2001:db8::1]", host)
	assert.Empty(t, port)
}

func TestParseHost_UnclosedBracket(t *testing.T) {
	_, _, err := ParseHost("ssh://user@[::1")
	assert.Error(t, err)
}

func TestParseHost_AmbiguousMultiColon(t *testing.T) {
	_, _, err := ParseHost("ssh://user@fe80::1::2")
	assert.Error(t, err)
}

func TestParseHost_EmptyHost(t *testing.T) {
	_, _, err := ParseHost("ssh://")
	assert.Error(t, err)
}
