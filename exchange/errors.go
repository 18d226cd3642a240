package exchange

import (
	"errors"
	"fmt"
)

// ErrChannelCreation is returned when the creator cannot allocate the
// shared region, including when a region with the same key already exists.
var ErrChannelCreation = errors.New("cannot create channel")

// ErrChannelAttach is returned when an attacher cannot find the shared
// region within the attach timeout. It is distinct from ErrChannelCreation
// so callers can tell "I should have created it" from "the creator never
// appeared".
var ErrChannelAttach = errors.New("cannot attach to channel")

// ErrChannelClosed is returned by a blocking operation when the peer has
// set the finish flag and departed, closed the channel, or failed to
// respond within the wait timeout.
var ErrChannelClosed = errors.New("channel closed")

// ErrFutexTimeout is returned by futexWaitTimeout when the wait times out.
var ErrFutexTimeout = errors.New("futex timeout")

// A ProtocolViolationError reports a misuse of the handshake API, such as
// SendEnd without a matching SendBegin or two SendBegins in a row. The
// alternation invariant is already broken at that point and the channel
// state cannot be trusted, so the endpoint panics with this error instead
// of attempting recovery.
type ProtocolViolationError struct {
	Op     string
	Reason string
}

func (e ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation in %s: %s", e.Op, e.Reason)
}

func protocolViolation(op, reason string) {
	panic(ProtocolViolationError{Op: op, Reason: reason})
}
