package audit

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FileSink writes one newline-delimited JSON line per record to an
// io.Writer (normally an append-mode file), using logrus purely for its
// JSONFormatter — this is the only place in the module that reaches for
// logrus rather than log/slog, since slog's JSON handler is tuned for
// operational logs, not a stable append-only record schema.
type FileSink struct {
	logger *logrus.Logger
}

func NewFileSink(w io.Writer) *FileSink {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(w)
	return &FileSink{logger: logger}
}

func (s *FileSink) Append(record Record) (string, error) {
	if record.OperationID == "" {
		record.OperationID = uuid.New().String()
	}

	s.logger.WithFields(logrus.Fields{
		"operation_id":      record.OperationID,
		"operation_name":    record.OperationName,
		"device_id":         record.DeviceID,
		"timestamp":         record.Timestamp,
		"success":           record.Success,
		"execution_time_ms": record.ExecutionTimeMs,
		"data_size_bytes":   record.DataSizeBytes,
		"cached":            record.Cached,
		"command_used":      record.CommandUsed,
		"error_message":     record.ErrorMessage,
		"metadata":          record.Metadata,
	}).Info("collection audit")

	return record.OperationID, nil
}
