package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsSentinel(t *testing.T) {
	err := NewError(ErrCodeNotOpen, "transmit").WithContext("dev", "net0")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.NotErrorIs(t, err, ErrAlreadyOpen)
	assert.Equal(t, "device not opened: transmit, dev=net0", err.Error())
	assert.Equal(t, ErrCodeNotOpen, CodeOf(err))
}

func TestError_WrapsDriverCause(t *testing.T) {
	cause := errors.New("link down")
	err := NewError(ErrCodeDriverFailure, "open").WithCause(cause)

	assert.ErrorIs(t, err, ErrDriverFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "link down")
}

func TestCodeOf_PlainError(t *testing.T) {
	require.Equal(t, ErrCodeOK, CodeOf(nil))
	require.Equal(t, ErrCodeOK, CodeOf(errors.New("x")))
	require.Equal(t, "ok", ErrCodeOK.String())
	require.Equal(t, "error code 99", ErrorCode(99).String())
}
