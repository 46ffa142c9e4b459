package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSink_AppendAssignsOperationIDWhenMissing(t *testing.T) {
	s := NewMemSink()
	id, err := s.Append(Record{OperationName: "uptime"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestMemSink_TrimsBeyondMaxSize(t *testing.T) {
	s := NewMemSink()
	s.maxSize = 3
	for i := 0; i < 5; i++ {
		_, err := s.Append(Record{OperationName: "uptime"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, s.Count())
}

func TestMemSink_TrimsOlderThanMaxAge(t *testing.T) {
	s := NewMemSink()
	s.maxAge = time.Hour
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	_, err := s.Append(Record{OperationName: "old", Timestamp: base.Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = s.Append(Record{OperationName: "recent"})
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "recent", all[0].OperationName)
}

func TestMemSink_ByOperationFindsMostRecentMatch(t *testing.T) {
	s := NewMemSink()
	id, err := s.Append(Record{OperationName: "uptime"})
	require.NoError(t, err)

	record, err := s.ByOperation(id)
	require.NoError(t, err)
	assert.Equal(t, "uptime", record.OperationName)
}

func TestMemSink_ByOperationErrorsWhenAbsent(t *testing.T) {
	s := NewMemSink()
	_, err := s.ByOperation("missing")
	assert.Error(t, err)
}
