package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRemote(t *testing.T) {
	remote := New(ErrorTypeNotFound, 404, "no user matches")

	assert.True(t, IsRemote(remote))
	assert.True(t, IsRemote(fmt.Errorf("lookup: %w", remote)))
	assert.False(t, IsRemote(context.Canceled))
	assert.False(t, IsRemote(stderrors.New("nil map write")))
	assert.False(t, IsRemote(nil))
}

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{0, ErrorTypeNetwork},
		{401, ErrorTypeAuth},
		{403, ErrorTypeForbidden},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeForStatus(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeForbidden))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeUnknown))
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(ErrorTypeNetwork, 0, "request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeNetwork, TypeOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))
	assert.Contains(t, err.Error(), "connection reset")
}
