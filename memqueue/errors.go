package memqueue

import (
	"github.com/code19m/errx"
)

func errInvalidArgument(msg string, details errx.D) error {
	return errx.New(
		"[memqueue]: "+msg,
		errx.WithCode(CodeInvalidArgument),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(details),
	)
}

func errNotFound(id string) error {
	return errx.New(
		"[memqueue]: message is not in flight",
		errx.WithCode(CodeNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"id": id}),
	)
}

func errHandleMismatch(id string) error {
	return errx.New(
		"[memqueue]: receipt handle does not match the current lease",
		errx.WithCode(CodeHandleMismatch),
		errx.WithType(errx.T_Conflict),
		errx.WithDetails(errx.D{"id": id}),
	)
}

func errClosed() error {
	return errx.New(
		"[memqueue]: queue is closed",
		errx.WithCode(CodeQueueClosed),
		errx.WithType(errx.T_Internal),
	)
}

// IsInvalidArgument reports whether err was caused by a rejected argument.
func IsInvalidArgument(err error) bool {
	return errx.IsCodeIn(err, CodeInvalidArgument)
}

// IsNotFound reports whether err means the message was not in flight.
func IsNotFound(err error) bool {
	return errx.IsCodeIn(err, CodeNotFound)
}

// IsHandleMismatch reports whether err means the receipt handle was stale.
func IsHandleMismatch(err error) bool {
	return errx.IsCodeIn(err, CodeHandleMismatch)
}

// IsClosed reports whether err was returned because the queue is closed.
func IsClosed(err error) bool {
	return errx.IsCodeIn(err, CodeQueueClosed)
}
