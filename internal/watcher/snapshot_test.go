package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashContent_StableAndDistinguishing(t *testing.T) {
	h1 := HashContent("server { listen 80; }")
	h2 := HashContent("server { listen 80; }")
	h3 := HashContent("server { listen 443; }")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestMemSnapshotStore_LatestAndAppend(t *testing.T) {
	store := NewMemSnapshotStore()

	_, ok := store.Latest("dev1", "/etc/nginx/nginx.conf")
	assert.False(t, ok)

	first := Snapshot{
		DeviceID:    "dev1",
		FilePath:    "/etc/nginx/nginx.conf",
		ContentHash: HashContent("v1"),
		Timestamp:   time.Now(),
		ChangeType:  ChangeCreate,
	}
	require.NoError(t, store.Append(first))

	latest, ok := store.Latest("dev1", "/etc/nginx/nginx.conf")
	require.True(t, ok)
	assert.Equal(t, first.ContentHash, latest.ContentHash)

	second := Snapshot{
		DeviceID:     "dev1",
		FilePath:     "/etc/nginx/nginx.conf",
		ContentHash:  HashContent("v2"),
		PreviousHash: first.ContentHash,
		Timestamp:    time.Now().Add(time.Second),
		ChangeType:   ChangeModify,
	}
	require.NoError(t, store.Append(second))

	latest, ok = store.Latest("dev1", "/etc/nginx/nginx.conf")
	require.True(t, ok)
	assert.Equal(t, second.ContentHash, latest.ContentHash)

	rows := store.ByDevice("dev1")
	require.Len(t, rows, 2)
}
