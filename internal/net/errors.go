package net

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned by a Directory that has no entry for a room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrChannelClosed is returned when a connection is attached to a channel
	// that was already closed.
	ErrChannelClosed = errors.New("channel closed")
)

// ConnectError reports a failed attempt to reach a room's coordinator, either
// at the rendezvous step or while opening the channel. It is never fatal.
type ConnectError struct {
	Room string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to room %q: %v", e.Room, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
