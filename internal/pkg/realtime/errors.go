package realtime

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected   = errors.New("realtime channel is not connected")
	ErrNoEndpoint     = errors.New("realtime channel was never connected")
	ErrManagerClosed  = errors.New("realtime channel closed")
	ErrMalformedFrame = errors.New("malformed realtime frame")
)

const (
	CloseNormal   = 1000
	CloseAbnormal = 1006
)

// CloseError is how a Conn reports the end of its read side. Clean is true
// when the peer completed the close handshake.
type CloseError struct {
	Code   int
	Reason string
	Clean  bool
	Err    error
}

func (e *CloseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("channel closed (code %d): %v", e.Code, e.Err)
	}
	if e.Reason != "" {
		return fmt.Sprintf("channel closed (code %d): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("channel closed (code %d)", e.Code)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}

// IsAbnormalClose reports whether err ends a channel in a way that warrants a
// reconnect: anything but a completed close handshake, and always code 1006.
func IsAbnormalClose(err error) bool {
	var ce *CloseError
	if !errors.As(err, &ce) {
		return true
	}
	return !ce.Clean || ce.Code == CloseAbnormal
}
