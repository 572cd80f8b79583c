package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSession_AppErrorGetsDetail(t *testing.T) {
	base := NewInsufficientStock("p", "w", "5", "3")
	err := WithSession(fmt.Errorf("finalize cart c: %w", base), "pg-1")

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "pg-1", appErr.Details["session_id"])
	assert.Equal(t, CodeInsufficientStock, appErr.Code)

	// The innermost session keeps its id.
	_ = WithSession(err, "pg-2")
	assert.Equal(t, "pg-1", appErr.Details["session_id"])
}

func TestWithSession_PlainErrorIsWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	err := WithSession(cause, "pg-7")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "session pg-7")
	assert.NoError(t, WithSession(nil, "pg-7"))
	assert.Equal(t, cause, WithSession(cause, ""))
}
