package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemSink keeps the most recent audit records in a bounded ring buffer:
// up to maxSize entries or maxAge retention, whichever trims first. It
// is the default sink and what tests assert against, since a real
// durable store is out of scope for the core.
type MemSink struct {
	mu      sync.RWMutex
	records []Record
	maxSize int
	maxAge  time.Duration
	now     func() time.Time
}

func NewMemSink() *MemSink {
	return &MemSink{
		records: make([]Record, 0, 1000),
		maxSize: 1000,
		maxAge:  24 * time.Hour,
		now:     time.Now,
	}
}

func (s *MemSink) Append(record Record) (string, error) {
	if record.OperationID == "" {
		record.OperationID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)

	cutoff := s.now().Add(-s.maxAge)
	filtered := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if r.Timestamp.After(cutoff) {
			filtered = append(filtered, r)
		}
	}
	s.records = filtered

	if len(s.records) > s.maxSize {
		s.records = s.records[len(s.records)-s.maxSize:]
	}

	return record.OperationID, nil
}

// All returns a defensive copy of the buffered records, most recent last.
func (s *MemSink) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ByOperation returns the most recent record with the given operation_id,
// or an error if none is found.
func (s *MemSink) ByOperation(operationID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].OperationID == operationID {
			return s.records[i], nil
		}
	}
	return Record{}, fmt.Errorf("audit record not found: %s", operationID)
}

// Count returns the number of buffered records.
func (s *MemSink) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
