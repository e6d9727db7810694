package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := NewError("dial coordinator", ErrSignalingError)
	assert.Equal(t, "dial coordinator: coordinator error", err.Error())

	wrapped := WrapError("join room", ErrHostGone, "room AB12CD")
	assert.Equal(t, "join room: host left the room (room AB12CD)", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	err := NewError("answer", ErrPeerDisconnected)
	assert.True(t, errors.Is(err, ErrPeerDisconnected))

	var sessErr *Error
	assert.True(t, errors.As(err, &sessErr))
	assert.Equal(t, "answer", sessErr.Op)
}
