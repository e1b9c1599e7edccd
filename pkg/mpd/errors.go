package mpd

import (
	"errors"
	"fmt"
)

// Client errors
var (
	ErrConnection           = errors.New("media server connection failed")
	ErrInvalidQueuePosition = errors.New("invalid queue position")
	ErrClosed               = errors.New("client closed")
)

// ConnectionError is returned when the initial dial or a reconnect fails.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to media server at %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}
