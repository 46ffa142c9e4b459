// Package collecterr defines the stable error taxonomy returned by the
// collection core. Every failed internal/collect Result carries one of
// these codes (internal/sshpool wraps its errors in Error, and collect maps
// any other pool error to SSH_COMMAND_ERROR), so that callers can branch
// on a string instead of a Go error type. internal/watcher returns plain
// errors and does not use these codes.
package collecterr

// Code is a stable identifier for a class of collection failure.
type Code string

const (
	UnknownOperation       Code = "UNKNOWN_OPERATION"
	InvalidParameters      Code = "INVALID_PARAMETERS"
	DeviceNotFound         Code = "DEVICE_NOT_FOUND"
	SSHConnectionError     Code = "SSH_CONNECTION_ERROR"
	SSHTimeoutError        Code = "SSH_TIMEOUT_ERROR"
	SSHCommandError        Code = "SSH_COMMAND_ERROR"
	CommandExecutionFailed Code = "COMMAND_EXECUTION_FAILED"
	CacheOperationError    Code = "CACHE_OPERATION_ERROR"
	ServiceUnavailable     Code = "SERVICE_UNAVAILABLE"
)

// retryable mirrors the "Retryable" column of spec §7. CACHE_OPERATION_ERROR
// never reaches a caller (it is swallowed at the call site) so it has no
// entry here.
var retryable = map[Code]bool{
	SSHConnectionError: true,
	SSHTimeoutError:    true,
}

// Retryable reports whether a caller may reasonably retry the operation
// that produced this code. SSH_COMMAND_ERROR is per-command-definition and
// deliberately not covered by this table.
func Retryable(c Code) bool {
	return retryable[c]
}

// Error wraps a Code with the underlying cause, so that internal code can
// use errors.As to classify it while the Code travels unharmed to Result.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
