package mqtt

import "errors"

// ErrAckTimeout is returned when no acknowledgment is received before the timeout.
var ErrAckTimeout = errors.New("timeout waiting for ack")

// ErrInvalidRequest is returned when a ride request payload cannot be used.
var ErrInvalidRequest = errors.New("invalid ride request")

// ErrUnknownMessage is returned when waiting on a message id that was never sent.
var ErrUnknownMessage = errors.New("unknown message")
