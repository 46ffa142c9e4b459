package collecterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryable_TrueForConnectionAndTimeout(t *testing.T) {
	assert.True(t, Retryable(SSHConnectionError))
	assert.True(t, Retryable(SSHTimeoutError))
}

func TestRetryable_FalseForEverythingElse(t *testing.T) {
	assert.False(t, Retryable(UnknownOperation))
	assert.False(t, Retryable(CommandExecutionFailed))
	assert.False(t, Retryable(SSHCommandError))
}

func TestError_MessageIncludesCauseWhenPresent(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(SSHConnectionError, "failed to connect", cause)
	assert.Equal(t, "failed to connect: connection refused", err.Error())
}

func TestError_MessageAloneWithoutCause(t *testing.T) {
	err := New(UnknownOperation, "unknown operation: foo")
	assert.Equal(t, "unknown operation: foo", err.Error())
}

func TestError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(SSHTimeoutError, "timed out", cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_AsMatchesWrappedCode(t *testing.T) {
	var target *Error
	err := error(Wrap(DeviceNotFound, "not found", nil))
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, DeviceNotFound, target.Code)
}
