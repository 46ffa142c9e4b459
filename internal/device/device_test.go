package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSHURL_DefaultsUserAndOmitsDefaultPort(t *testing.T) {
	d := &Device{Hostname: "host1"}
	assert.Equal(t, "ssh://root@host1", SSHURL(d))
}

func TestSSHURL_CustomUserAndPort(t *testing.T) {
	d := &Device{Hostname: "host1", SSHUser: "alice", SSHPort: 2222}
	assert.Equal(t, "ssh://alice@host1:2222", SSHURL(d))
}

func TestSSHURL_Port22TreatedAsDefault(t *testing.T) {
	d := &Device{Hostname: "host1", SSHUser: "alice", SSHPort: 22}
	assert.Equal(t, "ssh://alice@host1", SSHURL(d))
}

func TestMemStore_ResolveByHostnameOrID(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "host1"}))

	byHost, err := s.Resolve("host1")
	require.NoError(t, err)
	assert.Equal(t, "dev1", byHost.ID)

	byID, err := s.Resolve("dev1")
	require.NoError(t, err)
	assert.Equal(t, "host1", byID.Hostname)
}

func TestMemStore_ResolveUnknownReturnsErrNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.Resolve("ghost")
	require.Error(t, err)
	var notFound *ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMemStore_SaveDefaultsIDToHostname(t *testing.T) {
	s := NewMemStore()
	d := &Device{Hostname: "host1"}
	require.NoError(t, s.Save(d))
	assert.Equal(t, "host1", d.ID)
}

func TestMemStore_SaveRejectsEmptyHostname(t *testing.T) {
	s := NewMemStore()
	assert.Error(t, s.Save(&Device{}))
}

func TestMemStore_UpdateLastSeen(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "host1"}))

	seen := time.Now()
	require.NoError(t, s.UpdateLastSeen("host1", seen, StatusOnline))

	d, _ := s.Resolve("host1")
	assert.WithinDuration(t, seen, d.LastSeen, time.Second)
	assert.Equal(t, StatusOnline, d.Status)
}

func TestMemStore_AllDedupsAndSortsByHostname(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Save(&Device{ID: "dev2", Hostname: "zeta"}))
	require.NoError(t, s.Save(&Device{ID: "dev1", Hostname: "alpha"}))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Hostname)
	assert.Equal(t, "zeta", all[1].Hostname)
}

func TestBoolTag_DefaultsFalseWhenAbsent(t *testing.T) {
	d := &Device{}
	assert.False(t, d.BoolTag("docker"))
}

func TestBoolTag_ReadsTrueValue(t *testing.T) {
	d := &Device{Tags: map[string]any{"docker": true}}
	assert.True(t, d.BoolTag("docker"))
}
