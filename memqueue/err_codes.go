package memqueue

const (
	// CodeInvalidArgument is returned when a request is malformed or out of range.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeNotFound is returned when an ack names a message that is not in flight.
	CodeNotFound = "NOT_FOUND"

	// CodeHandleMismatch is returned when an ack carries a superseded receipt handle.
	CodeHandleMismatch = "HANDLE_MISMATCH"

	// CodeQueueClosed is returned by every operation after Close.
	CodeQueueClosed = "QUEUE_CLOSED"
)
