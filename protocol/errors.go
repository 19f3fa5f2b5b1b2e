package protocol

import (
	"github.com/code19m/errx"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/val"
)

// codeFrameTooLarge marks a protocol error after which the stream cannot be
// resynchronised. It is reported on the wire as PROTOCOL_ERROR.
const codeFrameTooLarge = "FRAME_TOO_LARGE"

const internalMessage = "internal error"

func errProtocol(msg string, details errx.D) error {
	return errx.New(
		"[protocol]: "+msg,
		errx.WithCode(CodeProtocolError),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(details),
	)
}

func errFrameTooLarge(limit int) error {
	return errx.New(
		"[protocol]: frame exceeds the maximum size",
		errx.WithCode(codeFrameTooLarge),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"max_frame_size": limit}),
	)
}

// IsProtocolError reports whether err is a malformed request or frame.
func IsProtocolError(err error) bool {
	return errx.IsCodeIn(err, CodeProtocolError, codeFrameTooLarge)
}

// IsFrameTooLarge reports whether err came from a frame over the size limit.
func IsFrameTooLarge(err error) bool {
	return errx.IsCodeIn(err, codeFrameTooLarge)
}

// ErrorResponse converts err into a failed Response.
// Errors without a known code are reported as INTERNAL and their text is not
// sent to the client.
func ErrorResponse(err error) Response {
	code := WireCode(err)

	msg := internalMessage
	if code != CodeInternal {
		msg = errx.AsErrorX(err).Error()
	}

	return Response{
		OK:    false,
		Error: &Error{Code: code, Message: msg},
	}
}

// WireCode maps err to the code sent to clients.
func WireCode(err error) string {
	switch {
	case errx.IsCodeIn(err, CodeProtocolError, codeFrameTooLarge):
		return CodeProtocolError
	case errx.IsCodeIn(err, memqueue.CodeInvalidArgument, val.CodeValidationFailed):
		return CodeInvalidArgument
	case errx.IsCodeIn(err, memqueue.CodeNotFound):
		return CodeNotFound
	case errx.IsCodeIn(err, memqueue.CodeHandleMismatch):
		return CodeHandleMismatch
	default:
		return CodeInternal
	}
}
