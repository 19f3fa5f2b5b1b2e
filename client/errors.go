package client

import (
	"errors"

	"github.com/rise-and-shine/pulseq/protocol"
)

// Errors returned by the broker, matched with errors.Is.
var (
	ErrInvalidArgument = errors.New("pulseq: invalid argument")
	ErrNotFound        = errors.New("pulseq: message not in flight")
	ErrHandleMismatch  = errors.New("pulseq: receipt handle does not match the current lease")
	ErrProtocol        = errors.New("pulseq: protocol error")
	ErrInternal        = errors.New("pulseq: internal broker error")
	ErrClosed          = errors.New("pulseq: client is closed")
)

// ServerError is an error response from the broker.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return "pulseq: " + e.Code + ": " + e.Message
}

// Is matches the sentinel for e.Code.
func (e *ServerError) Is(target error) bool {
	return sentinelFor(e.Code) == target
}

func sentinelFor(code string) error {
	switch code {
	case protocol.CodeInvalidArgument:
		return ErrInvalidArgument
	case protocol.CodeNotFound:
		return ErrNotFound
	case protocol.CodeHandleMismatch:
		return ErrHandleMismatch
	case protocol.CodeProtocolError:
		return ErrProtocol
	default:
		return ErrInternal
	}
}
