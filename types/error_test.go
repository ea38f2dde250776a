package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrUnwrapFailed, "unable to resolve origin asset URL")
	assert.Equal(t, "[UNWRAP_FAILED] unable to resolve origin asset URL", err.Error())

	cause := errors.New("boom")
	err = err.WithCause(cause)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrorBuilders(t *testing.T) {
	err := NewError(ErrUpstreamError, "asset host returned 503").
		WithHTTPStatus(502).
		WithRetryable(true).
		WithUpstream("assets")

	assert.Equal(t, 502, err.HTTPStatus)
	assert.True(t, err.Retryable)
	assert.Equal(t, "assets", err.Upstream)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrUpstreamTimeout, "t").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrInvalidRequest, "bad")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrHostNotAllowed, GetErrorCode(NewError(ErrHostNotAllowed, "nope")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}
