package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "chat id is required")
	assert.Equal(t, "INVALID_INPUT: chat id is required", err.Error())

	wrapped := Wrap(stderrors.New("disk full"), ErrCodeStoreQuery, "insert failed")
	assert.Equal(t, "STORE_QUERY: insert failed: disk full", wrapped.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(cause, ErrCodeGeneration, "generation failed")

	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, ErrCodeGeneration, appErr.Code)
}

func TestAppErrorContext(t *testing.T) {
	err := New(ErrCodeProviderAPI, "send failed").
		WithContext("channel", "telegram").
		WithContext("status_code", 502)

	assert.Equal(t, "telegram", err.Context["channel"])
	assert.Equal(t, 502, err.Context["status_code"])
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapRetryable(stderrors.New("x"), ErrCodeStoreConnection, "open failed")))
	assert.False(t, IsRetryable(New(ErrCodeInvalidInput, "bad")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "missing")))
	assert.Equal(t, ErrCodeInternalError, GetCode(stderrors.New("plain")))
}

func TestGetUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "bad port").WithUserMessage("Configuration error")
	assert.Equal(t, "Configuration error", GetUserMessage(err))
	assert.Equal(t, "An internal error occurred", GetUserMessage(stderrors.New("plain")))
}

func TestNewProviderErrorRetryability(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{500, true},
		{503, true},
		{429, true},
		{408, true},
		{400, false},
		{401, false},
		{404, false},
	}

	for _, tt := range tests {
		err := NewProviderError("telegram", "sendMessage", tt.status, stderrors.New("boom"))
		assert.Equal(t, tt.retryable, err.Retryable, "status %d", tt.status)
	}
}

func TestNewNormalizationError(t *testing.T) {
	err := NewNormalizationError("wazzup", stderrors.New("no inbound message"))
	assert.Equal(t, ErrCodeNormalization, err.Code)
	assert.Equal(t, "wazzup", err.Context["channel"])
	assert.ErrorContains(t, err, "no inbound message")
}
